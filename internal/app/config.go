package app

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env       string
	HTTPAddr  string
	CORSAllow []string

	RedisAddr string // host:port
	RedisDB   int

	RoomTTL    time.Duration // expiry for all room-scoped keys, refreshed on mutation
	Heartbeat  time.Duration // liveness sweep interval
	StartDelay time.Duration // pause between ready and game_start broadcast
	RoomIDLen  int           // room identifier length
}

func LoadConfig() Config {
	cfg := Config{
		Env:       getEnv("APP_ENV", "dev"),
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
	}
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.RoomTTL = time.Duration(getEnvInt("ROOM_TTL_SEC", 1800)) * time.Second
	cfg.Heartbeat = time.Duration(getEnvInt("HEARTBEAT_SEC", 30)) * time.Second
	cfg.StartDelay = time.Duration(getEnvInt("START_DELAY_MS", 2000)) * time.Millisecond
	cfg.RoomIDLen = getEnvInt("ROOM_ID_LEN", 5)
	// CORS allowlist
	allow := getEnv("CORS_ALLOW", "http://localhost:5173")
	cfg.CORSAllow = splitCSV(allow)
	log.Printf("config: %+v\n", cfg)
	return cfg
}

// getEnv returns the env var or a default
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses an int env var with a fallback. An explicit zero is a
// value (START_DELAY_MS=0, REDIS_DB=0), not a request for the default;
// only unset, unparsable, or negative input falls back.
func getEnvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i < 0 {
		return def
	}
	return i
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
