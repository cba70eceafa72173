package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RoomsCreated counts successful room creations
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parchi_rooms_created_total",
		Help: "Rooms created through the front door",
	})

	// MessagesDispatched counts inbound websocket envelopes
	MessagesDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parchi_messages_dispatched_total",
		Help: "Inbound websocket messages routed by the dispatcher",
	})

	// BroadcastSkips counts sends skipped for players with no live connection
	BroadcastSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parchi_broadcast_skips_total",
		Help: "Broadcast deliveries skipped because the player had no connection",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
