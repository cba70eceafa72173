package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MuneerAhmed03/parchi/internal/game"
	"github.com/MuneerAhmed03/parchi/internal/store"
	"github.com/MuneerAhmed03/parchi/pkg/gameerr"
)

// Store is what the coordinator needs from the room store. *store.Rooms
// implements it; tests run against an in-memory fake.
type Store interface {
	GetPlayers(ctx context.Context, roomID string) ([]store.Player, error)
	SubmitTitleAndCheck(ctx context.Context, roomID, title, playerID string) (bool, error)
	GetTitles(ctx context.Context, roomID string) ([]string, error)
	GetGameState(ctx context.Context, roomID string) (*store.GameState, error)
	SaveGameState(ctx context.Context, roomID string, s *store.GameState) error
	SetStatus(ctx context.Context, roomID string, status store.Status) error
	GetStatus(ctx context.Context, roomID string) (store.Status, error)
	SetPlayerConnected(ctx context.Context, playerID, roomID string, connected bool) error
	FindDisconnectedPlayer(ctx context.Context, roomID string) (*store.Player, error)
	ReplacePlayer(ctx context.Context, roomID, oldPlayerID, newPlayerID, newName string) error
	RemovePlayer(ctx context.Context, roomID, playerID string) (int, error)
	Reclaim(ctx context.Context, roomID string) error
}

// Coordinator owns the room lifecycle: lobby → inProgress → finished, plus
// reclamation. All read-modify-write paths on a room's GameState run under
// that room's mutex; the affinity tag keeps a room's connections on one
// process, so in-process serialization is the whole contract.
type Coordinator struct {
	store      Store
	reg        *Registry
	bc         *Broadcaster
	log        *slog.Logger
	startDelay time.Duration
	release    func(roomID string) // frees the allocator reservation, may be nil

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator wires the state machine over its collaborators
func NewCoordinator(st Store, reg *Registry, bc *Broadcaster, log *slog.Logger, startDelay time.Duration, release func(string)) *Coordinator {
	return &Coordinator{
		store:      st,
		reg:        reg,
		bc:         bc,
		log:        log,
		startDelay: startDelay,
		release:    release,
		locks:      map[string]*sync.Mutex{},
	}
}

// lockRoom serializes mutations for one room; returns the unlock
func (co *Coordinator) lockRoom(roomID string) func() {
	co.mu.Lock()
	l := co.locks[roomID]
	if l == nil {
		l = &sync.Mutex{}
		co.locks[roomID] = l
	}
	co.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (co *Coordinator) dropLock(roomID string) {
	co.mu.Lock()
	delete(co.locks, roomID)
	co.mu.Unlock()
}

// JoinRoom binds the connection to the player and synchronizes them with the
// room: a lobby gets a snapshot, an in-progress game gets a state view, and
// an unknown identifier is offered a disconnected seat, if one exists.
func (co *Coordinator) JoinRoom(ctx context.Context, roomID, playerID, playerName string, c client) error {
	status, err := co.store.GetStatus(ctx, roomID)
	if err != nil {
		return err
	}

	co.reg.Register(playerID, roomID, c)

	switch status {
	case store.StatusInProgress:
		return co.joinInProgress(ctx, roomID, playerID, playerName, c)
	default:
		// A rejoining lobby player may carry a stale disconnected flag from a
		// dropped socket; restore it so reaping counts them as present.
		if err := co.store.SetPlayerConnected(ctx, playerID, roomID, true); err != nil {
			return err
		}
		return co.bc.Lobby(ctx, roomID)
	}
}

func (co *Coordinator) joinInProgress(ctx context.Context, roomID, playerID, playerName string, c client) error {
	unlock := co.lockRoom(roomID)
	defer unlock()

	players, err := co.store.GetPlayers(ctx, roomID)
	if err != nil {
		return err
	}

	name := playerName
	seated := false
	for _, p := range players {
		if p.ID == playerID {
			seated = true
			name = p.Name
			break
		}
	}

	if seated {
		if err := co.store.SetPlayerConnected(ctx, playerID, roomID, true); err != nil {
			return err
		}
	} else {
		seat, err := co.store.FindDisconnectedPlayer(ctx, roomID)
		if err != nil {
			return err
		}
		if seat == nil {
			co.reg.Remove(playerID, c)
			return gameerr.ErrNoSeatAvailable
		}
		if err := co.store.ReplacePlayer(ctx, roomID, seat.ID, playerID, playerName); err != nil {
			return err
		}
		if name == "" {
			name = seat.Name
		}
		co.log.Info("room.seat_filled", "room_id", roomID, "old", seat.ID, "new", playerID)
	}

	if err := co.bc.GameState(ctx, roomID, "gameState"); err != nil {
		return err
	}
	return co.bc.Room(ctx, roomID, map[string]any{"type": "player_joined", "data": name})
}

// SubmitTitle records the player's title; when the fourth distinct title
// lands the game is dealt and started.
func (co *Coordinator) SubmitTitle(ctx context.Context, roomID, playerID, title string) error {
	ready, err := co.store.SubmitTitleAndCheck(ctx, roomID, title, playerID)
	if err != nil {
		return err
	}
	if !ready {
		return co.bc.Lobby(ctx, roomID)
	}
	return co.startGame(ctx, roomID)
}

// startGame deals hands from the title pool, persists the fresh state, and
// announces game_start after the fixed delay
func (co *Coordinator) startGame(ctx context.Context, roomID string) error {
	unlock := co.lockRoom(roomID)
	defer unlock()

	players, err := co.store.GetPlayers(ctx, roomID)
	if err != nil {
		return err
	}
	titles, err := co.store.GetTitles(ctx, roomID)
	if err != nil {
		return err
	}

	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}

	s, err := game.Deal(titles, ids)
	if err != nil {
		return err
	}
	if err := co.store.SaveGameState(ctx, roomID, s); err != nil {
		return err
	}
	if err := co.store.SetStatus(ctx, roomID, store.StatusInProgress); err != nil {
		return err
	}
	co.log.Info("room.game_started", "room_id", roomID, "players", len(ids))

	time.AfterFunc(co.startDelay, func() {
		bctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := co.bc.GameState(bctx, roomID, "game_start"); err != nil {
			co.log.Warn("room.game_start_broadcast", "room_id", roomID, "err", err)
		}
	})
	return nil
}

// PlayCard resolves one turn and pushes the updated views
func (co *Coordinator) PlayCard(ctx context.Context, roomID, playerID string, cardIndex int) error {
	unlock := co.lockRoom(roomID)
	defer unlock()

	s, err := co.store.GetGameState(ctx, roomID)
	if err != nil {
		return err
	}
	if err := game.Play(s, playerID, cardIndex); err != nil {
		return err
	}
	if err := co.store.SaveGameState(ctx, roomID, s); err != nil {
		return err
	}
	return co.bc.GameState(ctx, roomID, "gameState")
}

// ClaimWin verifies the claim; success finishes the game and tears the room
// down, a wrong claim is announced to everyone.
func (co *Coordinator) ClaimWin(ctx context.Context, roomID, playerID string) error {
	unlock := co.lockRoom(roomID)
	defer unlock()

	s, err := co.store.GetGameState(ctx, roomID)
	if err != nil {
		return err
	}
	won, err := game.ClaimWin(s, playerID)
	if err != nil {
		return err
	}

	name := playerID
	if players, perr := co.store.GetPlayers(ctx, roomID); perr == nil {
		for _, p := range players {
			if p.ID == playerID {
				name = p.Name
				break
			}
		}
	}

	if !won {
		return co.bc.Room(ctx, roomID, map[string]any{"type": "wrong_claim", "text": name + " made a wrong claim"})
	}

	if err := co.store.SaveGameState(ctx, roomID, s); err != nil {
		return err
	}
	if err := co.store.SetStatus(ctx, roomID, store.StatusFinished); err != nil {
		return err
	}
	if err := co.bc.GameState(ctx, roomID, "gameState"); err != nil {
		co.log.Warn("room.final_state_broadcast", "room_id", roomID, "err", err)
	}
	if err := co.bc.Room(ctx, roomID, map[string]any{"type": "game_end", "winner": name}); err != nil {
		co.log.Warn("room.game_end_broadcast", "room_id", roomID, "err", err)
	}
	co.log.Info("room.game_won", "room_id", roomID, "winner", playerID)
	return co.teardown(ctx, roomID)
}

// LeaveRoom is an explicit exit: a lobby player is removed outright, an
// in-progress player only loses connectedness so the seat survives.
func (co *Coordinator) LeaveRoom(ctx context.Context, roomID, playerID string, c client) error {
	status, err := co.store.GetStatus(ctx, roomID)
	if err != nil {
		return err
	}

	if c != nil {
		co.reg.Remove(playerID, c)
	}

	if status == store.StatusLobby {
		remaining, err := co.store.RemovePlayer(ctx, roomID, playerID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return co.teardown(ctx, roomID)
		}
		return co.bc.Lobby(ctx, roomID)
	}

	if err := co.store.SetPlayerConnected(ctx, playerID, roomID, false); err != nil {
		return err
	}
	if err := co.bc.Room(ctx, roomID, map[string]any{"type": "player_left", "data": playerID}); err != nil {
		co.log.Warn("room.player_left_broadcast", "room_id", roomID, "err", err)
	}
	return co.reapIfEmpty(ctx, roomID)
}

// Restart re-deals the existing room from its title pool
func (co *Coordinator) Restart(ctx context.Context, roomID string) error {
	status, err := co.store.GetStatus(ctx, roomID)
	if err != nil {
		return err
	}
	if status == store.StatusLobby {
		return gameerr.ErrNotInProgress
	}
	return co.startGame(ctx, roomID)
}

// HandleDisconnect is the single path for a connection going away without an
// explicit exit (heartbeat death, read error, socket close). Idempotent: the
// registry guarantees at most one invocation per connection, and re-marking
// a player disconnected is a no-op.
func (co *Coordinator) HandleDisconnect(playerID, roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := co.store.SetPlayerConnected(ctx, playerID, roomID, false); err != nil {
		co.log.Error("ws.disconnect_mark", "player_id", playerID, "room_id", roomID, "err", err)
		return
	}
	co.log.Info("ws.disconnect", "player_id", playerID, "room_id", roomID)

	if err := co.reapIfEmpty(ctx, roomID); err != nil {
		co.log.Error("ws.disconnect_reap", "room_id", roomID, "err", err)
	}
}

// reapIfEmpty reclaims the room once no player is connected anymore
func (co *Coordinator) reapIfEmpty(ctx context.Context, roomID string) error {
	players, err := co.store.GetPlayers(ctx, roomID)
	if err != nil {
		return err
	}
	for _, p := range players {
		if p.Connected {
			return nil
		}
	}
	return co.teardown(ctx, roomID)
}

// teardown deletes the room's keys and frees its identifier reservation
func (co *Coordinator) teardown(ctx context.Context, roomID string) error {
	if err := co.store.Reclaim(ctx, roomID); err != nil {
		return err
	}
	if co.release != nil {
		co.release(roomID)
	}
	co.dropLock(roomID)
	return nil
}
