package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// BusMessage is one targeted frame crossing instances. Origin carries the
// publisher's server id so an instance can ignore its own echoes; the room's
// affinity tag normally pins all four connections to one process, the bus
// covers the deployments where it doesn't.
type BusMessage struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Origin   string `json:"origin"`
	Payload  []byte `json:"payload"`
}

// Bus fans broadcast frames out to player connections held by other
// instances via redis pub/sub.
type Bus struct {
	rdb    *redis.Client
	log    *slog.Logger
	origin string
}

// NewBus wraps an already-connected client; origin is this process's server id
func NewBus(rdb *redis.Client, log *slog.Logger, origin string) *Bus {
	return &Bus{rdb: rdb, log: log, origin: origin}
}

// Publish sends one player's frame to the room channel
func (b *Bus) Publish(ctx context.Context, roomID, playerID string, payload []byte) error {
	raw, err := json.Marshal(BusMessage{RoomID: roomID, PlayerID: playerID, Origin: b.origin, Payload: payload})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channel(roomID), raw).Err()
}

// Run listens on all room channels and forwards foreign frames to locally
// registered connections until ctx is cancelled.
func (b *Bus) Run(ctx context.Context, reg *Registry) {
	pubsub := b.rdb.PSubscribe(ctx, channel("*"))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg := <-ch:
			var bm BusMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				b.log.Warn("bus.decode", "err", err)
				continue
			}
			if bm.Origin == b.origin || bm.PlayerID == "" {
				continue
			}
			if c, ok := reg.Get(bm.PlayerID); ok {
				c.Send(bm.Payload)
			}
		}
	}
}

// channel namespacing for room pub/sub
func channel(roomID string) string { return "parchi:room:" + roomID }
