package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MuneerAhmed03/parchi/internal/app"
)

// NewClient connects to redis and verifies connectivity
func NewClient(ctx context.Context, cfg app.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// Rooms is the redis façade owning all durable room data. Every room lives
// under four TTL-bounded keys; any mutation refreshes the TTL so an active
// room stays alive without a separate timer, and an abandoned one simply
// lapses (absence of keys is the reclaimed state).
type Rooms struct {
	rdb      *redis.Client
	log      *slog.Logger
	ttl      time.Duration
	serverID string
}

// NewRooms wraps an already-connected client. serverID is this process's
// affinity tag, written into each room it creates.
func NewRooms(rdb *redis.Client, log *slog.Logger, ttl time.Duration, serverID string) *Rooms {
	return &Rooms{rdb: rdb, log: log, ttl: ttl, serverID: serverID}
}

// Persisted key layout, per room
func roomKey(id string) string    { return "room:" + id }
func playersKey(id string) string { return "room:" + id + ":players" }
func titlesKey(id string) string  { return "room:" + id + ":titles" }
func stateKey(id string) string   { return "room:" + id + ":gameState" }

func roomKeys(id string) []string {
	return []string{roomKey(id), playersKey(id), titlesKey(id), stateKey(id)}
}

// ttlSeconds is what the Lua scripts get as their EXPIRE argument
func (r *Rooms) ttlSeconds() int64 { return int64(r.ttl / time.Second) }
