package httpx

import (
	"log/slog"
	"net/http"

	"github.com/MuneerAhmed03/parchi/internal/app"
	"github.com/MuneerAhmed03/parchi/internal/store"
	"github.com/MuneerAhmed03/parchi/internal/ws"
	"github.com/MuneerAhmed03/parchi/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub, rooms *store.Rooms, alloc *store.Allocator) http.Handler {
	mw := NewMiddleware(cfg)
	api := &RoomsAPI{Store: rooms, Alloc: alloc, Log: logger}

	mux := http.NewServeMux()

	// Health / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Room front door
	mux.Handle("POST /api/create-room", http.HandlerFunc(api.Create))
	mux.Handle("POST /api/join-room", http.HandlerFunc(api.Join))

	return mw.Wrap(mux) // CORS + rate limit applied globally
}
