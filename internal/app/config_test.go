package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvIntZeroIsAValue(t *testing.T) {
	t.Setenv("START_DELAY_MS", "0")
	t.Setenv("REDIS_DB", "0")

	cfg := LoadConfig()
	assert.Equal(t, time.Duration(0), cfg.StartDelay)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestGetEnvIntFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset", "", 7},
		{"garbage", "banana", 7},
		{"negative", "-3", 7},
		{"valid", "42", 42},
		{"padded", " 42 ", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("SOME_INT_KNOB", tt.value)
			}
			assert.Equal(t, tt.want, getEnvInt("SOME_INT_KNOB", 7))
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "ROOM_TTL_SEC", "HEARTBEAT_SEC", "START_DELAY_MS", "ROOM_ID_LEN", "CORS_ALLOW"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Minute, cfg.RoomTTL)
	assert.Equal(t, 30*time.Second, cfg.Heartbeat)
	assert.Equal(t, 2*time.Second, cfg.StartDelay)
	assert.Equal(t, 5, cfg.RoomIDLen)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllow)
}
