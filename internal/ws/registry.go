package ws

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// client is what the registry needs from a connection. *Conn satisfies it;
// tests substitute fakes.
type client interface {
	Send(b []byte)
	Ping(ctx context.Context) error
	Close() error
}

type entry struct {
	conn   client
	roomID string
	alive  atomic.Bool
}

// Registry is the process-local map from player id to live connection.
// It owns liveness: a background sweep closes connections that failed to
// answer a ping within one interval and reports them as disconnects.
// Never persisted; rebuilt empty on every process start.
type Registry struct {
	log      *slog.Logger
	interval time.Duration

	// OnDisconnect is invoked (in its own goroutine) exactly once per
	// registered connection that goes away. Set before Run.
	OnDisconnect func(playerID, roomID string)

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry sweeping every interval
func NewRegistry(log *slog.Logger, interval time.Duration) *Registry {
	return &Registry{log: log, interval: interval, entries: map[string]*entry{}}
}

// Register binds a connection to a player, replacing and closing any prior
// connection for the same player (reconnect with a new socket).
func (r *Registry) Register(playerID, roomID string, c client) {
	e := &entry{conn: c, roomID: roomID}
	e.alive.Store(true)

	r.mu.Lock()
	old := r.entries[playerID]
	r.entries[playerID] = e
	r.mu.Unlock()

	if old != nil {
		_ = old.conn.Close()
	}
}

// Get returns the live connection for a player, if any
func (r *Registry) Get(playerID string) (client, bool) {
	r.mu.RLock()
	e, ok := r.entries[playerID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// Remove drops the registration only if c is still the registered
// connection. The boolean result makes disconnect handling idempotent: of
// the heartbeat sweep and the read-loop exit, exactly one caller wins.
func (r *Registry) Remove(playerID string, c client) (roomID string, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[playerID]
	if !ok || e.conn != c {
		return "", false
	}
	delete(r.entries, playerID)
	return e.roomID, true
}

// Run sweeps all connections on a fixed interval until ctx is cancelled.
// A connection that did not answer the previous sweep's ping is closed and
// treated as a disconnect; everyone else gets the next probe.
func (r *Registry) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case <-t.C:
			r.sweep(ctx)
		}
	}
}

func (r *Registry) sweep(ctx context.Context) {
	r.mu.RLock()
	snapshot := make(map[string]*entry, len(r.entries))
	for id, e := range r.entries {
		snapshot[id] = e
	}
	r.mu.RUnlock()

	for playerID, e := range snapshot {
		if !e.alive.Load() {
			r.log.Info("heartbeat.dead", "player_id", playerID, "room_id", e.roomID)
			_ = e.conn.Close()
			if roomID, ok := r.Remove(playerID, e.conn); ok && r.OnDisconnect != nil {
				go r.OnDisconnect(playerID, roomID)
			}
			continue
		}

		// Demand proof of life before the next sweep
		e.alive.Store(false)
		go func(e *entry) {
			pctx, cancel := context.WithTimeout(ctx, r.interval)
			defer cancel()
			if err := e.conn.Ping(pctx); err == nil {
				e.alive.Store(true)
			}
		}(e)
	}
}

// drain closes every connection at shutdown without firing disconnects
func (r *Registry) drain() {
	r.mu.Lock()
	for _, e := range r.entries {
		_ = e.conn.Close()
	}
	r.entries = map[string]*entry{}
	r.mu.Unlock()
}
