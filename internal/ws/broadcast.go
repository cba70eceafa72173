package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/MuneerAhmed03/parchi/internal/store"
	"github.com/MuneerAhmed03/parchi/pkg/metrics"
)

// PlayerView is the role-filtered projection of a GameState: everything a
// player may know, which is everything except the other hands.
type PlayerView struct {
	Players            []string     `json:"players"`
	CurrentPlayerIndex int          `json:"currentPlayerIndex"`
	GameStatus         store.Status `json:"gameStatus"`
	Winner             string       `json:"winner,omitempty"`
	Hand               []store.Chit `json:"hand"`
}

// ProjectView derives the view for the player at playerIndex. This is the
// only path from authoritative state to a socket; raw GameState never leaves
// the process.
func ProjectView(s *store.GameState, playerIndex int) PlayerView {
	return PlayerView{
		Players:            s.Players,
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		GameStatus:         s.GameStatus,
		Winner:             s.Winner,
		Hand:               s.Hands[playerIndex],
	}
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Broadcaster pushes projected views and control messages to a room's live
// connections. Players without a connection are skipped silently, and one
// failed send never aborts delivery to the rest. When a bus is attached,
// every frame is also published for connections held by other instances.
type Broadcaster struct {
	reg   *Registry
	store Store
	bus   *Bus
	log   *slog.Logger
}

// NewBroadcaster wires the engine; bus may be nil for single-instance runs
func NewBroadcaster(reg *Registry, st Store, bus *Bus, log *slog.Logger) *Broadcaster {
	return &Broadcaster{reg: reg, store: st, bus: bus, log: log}
}

// GameState reads back the authoritative state and pushes each player their
// own projection under the given message type ("gameState" or "game_start").
func (b *Broadcaster) GameState(ctx context.Context, roomID, kind string) error {
	s, err := b.store.GetGameState(ctx, roomID)
	if err != nil {
		return err
	}
	for i, playerID := range s.Players {
		raw, err := json.Marshal(envelope{Type: kind, Data: ProjectView(s, i)})
		if err != nil {
			return err
		}
		b.deliver(ctx, roomID, playerID, raw)
	}
	return nil
}

// Lobby pushes the current player list (no hands exist yet) to the room
func (b *Broadcaster) Lobby(ctx context.Context, roomID string) error {
	players, err := b.store.GetPlayers(ctx, roomID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope{Type: "lobby", Data: players})
	if err != nil {
		return err
	}
	for _, p := range players {
		b.deliver(ctx, roomID, p.ID, raw)
	}
	return nil
}

// Room pushes an arbitrary control message to every player of the room
func (b *Broadcaster) Room(ctx context.Context, roomID string, msg any) error {
	players, err := b.store.GetPlayers(ctx, roomID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	for _, p := range players {
		b.deliver(ctx, roomID, p.ID, raw)
	}
	return nil
}

// To pushes a targeted message to a single player
func (b *Broadcaster) To(ctx context.Context, roomID, playerID string, msg any) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	b.deliver(ctx, roomID, playerID, raw)
	return nil
}

// Error reports a failure to one player's local connection only
func (b *Broadcaster) Error(playerID, msg string) {
	raw, _ := json.Marshal(map[string]string{"type": "error", "message": msg})
	if c, ok := b.reg.Get(playerID); ok {
		c.Send(raw)
	}
}

func (b *Broadcaster) deliver(ctx context.Context, roomID, playerID string, payload []byte) {
	if c, ok := b.reg.Get(playerID); ok {
		c.Send(payload)
	} else {
		metrics.BroadcastSkips.Inc()
	}
	if b.bus != nil {
		if err := b.bus.Publish(ctx, roomID, playerID, payload); err != nil {
			b.log.Warn("broadcast.bus_publish", "room_id", roomID, "err", err)
		}
	}
}
