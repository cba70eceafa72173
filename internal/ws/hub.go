package ws

import (
	"log/slog"
	"net/http"
)

// Hub accepts websocket connections and runs one read loop per connection.
// Messages from one connection are handled strictly in order; different
// connections proceed concurrently.
type Hub struct {
	log *slog.Logger
	reg *Registry
	co  *Coordinator
}

// NewHub sets up the hub over the registry and coordinator
func NewHub(log *slog.Logger, reg *Registry, co *Coordinator) *Hub {
	return &Hub{log: log, reg: reg, co: co}
}

// ServeWS handles a new /ws connection for its whole lifetime
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wsc, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}
	c := NewConn(wsc)
	go c.WriteLoop(ctx)

	sess := &session{hub: h, conn: c}
	for {
		payload, ok := c.Read(ctx)
		if !ok {
			break
		}
		sess.handle(ctx, payload)
	}

	// Read-loop exit is a disconnect unless a newer socket already took over
	// the registration or the player exited explicitly.
	if sess.playerID != "" {
		if roomID, ok := h.reg.Remove(sess.playerID, c); ok {
			h.co.HandleDisconnect(sess.playerID, roomID)
		}
	}
	_ = c.Close()
}
