package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/MuneerAhmed03/parchi/pkg/gameerr"
)

// ErrRoomTaken is returned by CreateRoom when the identifier is already
// occupied; the allocator should have pre-reserved it, so this is a bug or a
// collision with a foreign writer, not a player-facing condition.
var ErrRoomTaken = errors.New("room id already occupied")

// ErrTitleTaken is the domain error for a title another player already holds
var ErrTitleTaken = gameerr.New("title already taken")

// CreateRoom claims roomID, sets it to lobby, and inserts the owner as the
// first (connected) player, all in one atomic script so the claim never
// outlives a failed creation: the keys are TTL-bounded from the start.
func (r *Rooms) CreateRoom(ctx context.Context, roomID, ownerID, ownerName string) error {
	owner, err := json.Marshal(Player{ID: ownerID, Name: ownerName, Connected: true})
	if err != nil {
		return fmt.Errorf("encode owner: %w", err)
	}
	res, err := createRoomScript.Run(ctx, r.rdb, roomKeys(roomID),
		r.serverID, ownerID, owner, r.ttlSeconds()).Int()
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	if res == 0 {
		return ErrRoomTaken
	}
	r.log.Info("room.created", "room_id", roomID, "owner", ownerID)
	return nil
}

// RoomExists reports whether roomID currently has a status record
func (r *Rooms) RoomExists(ctx context.Context, roomID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, roomKey(roomID)).Result()
	if err != nil {
		return false, fmt.Errorf("room exists: %w", err)
	}
	return n > 0, nil
}

// AddPlayer inserts a player unless the room is full. Capacity is enforced
// here, inside the script, not re-derived by callers.
func (r *Rooms) AddPlayer(ctx context.Context, roomID, playerID, name string) error {
	rec, err := json.Marshal(Player{ID: playerID, Name: name, Connected: true})
	if err != nil {
		return fmt.Errorf("encode player: %w", err)
	}
	res, err := addPlayerScript.Run(ctx, r.rdb, roomKeys(roomID), playerID, rec, r.ttlSeconds()).Int()
	if err != nil {
		return fmt.Errorf("add player: %w", err)
	}
	switch res {
	case -1:
		return gameerr.ErrRoomFull
	case -2:
		return gameerr.ErrRoomNotFound
	}
	return nil
}

// GetPlayers returns the room's players sorted by id
func (r *Rooms) GetPlayers(ctx context.Context, roomID string) ([]Player, error) {
	raw, err := r.rdb.HGetAll(ctx, playersKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}
	players := make([]Player, 0, len(raw))
	for id, v := range raw {
		var p Player
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, fmt.Errorf("corrupt player record %s in %s: %w", id, roomID, err)
		}
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

// SubmitTitleAndCheck records the title and evaluates readiness atomically.
// It reports true exactly once per room per game: the script flips the room
// out of lobby in the same transaction that sees the fourth title.
func (r *Rooms) SubmitTitleAndCheck(ctx context.Context, roomID, title, playerID string) (bool, error) {
	res, err := submitTitleScript.Run(ctx, r.rdb, roomKeys(roomID), playerID, title, r.ttlSeconds()).Int()
	if err != nil {
		return false, fmt.Errorf("submit title: %w", err)
	}
	switch res {
	case -1:
		return false, gameerr.ErrPlayerNotInRoom
	case -2:
		return false, ErrTitleTaken
	}
	return res == 1, nil
}

// GetTitles returns the submitted title pool
func (r *Rooms) GetTitles(ctx context.Context, roomID string) ([]string, error) {
	titles, err := r.rdb.SMembers(ctx, titlesKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get titles: %w", err)
	}
	sort.Strings(titles)
	return titles, nil
}

// GetGameState loads and decodes the authoritative state
func (r *Rooms) GetGameState(ctx context.Context, roomID string) (*GameState, error) {
	raw, err := r.rdb.Get(ctx, stateKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, gameerr.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	var s GameState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("corrupt game state in %s: %w", roomID, err)
	}
	return &s, nil
}

// SaveGameState replaces the state and refreshes the TTL on every room key
func (r *Rooms) SaveGameState(ctx context.Context, roomID string, s *GameState) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode game state: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, stateKey(roomID), raw, r.ttl)
		for _, k := range roomKeys(roomID) {
			p.Expire(ctx, k, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save game state: %w", err)
	}
	return nil
}

// SetStatus writes the lifecycle status
func (r *Rooms) SetStatus(ctx context.Context, roomID string, status Status) error {
	if err := r.rdb.HSet(ctx, roomKey(roomID), "state", string(status)).Err(); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// GetStatus reads the lifecycle status; a missing room is a domain error
func (r *Rooms) GetStatus(ctx context.Context, roomID string) (Status, error) {
	raw, err := r.rdb.HGet(ctx, roomKey(roomID), "state").Result()
	if errors.Is(err, redis.Nil) {
		return "", gameerr.ErrRoomNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get status: %w", err)
	}
	return Status(raw), nil
}

// SetPlayerConnected flips the connectedness flag on a player record.
// Unknown players are ignored: disconnect handling is idempotent and may
// race reclamation.
func (r *Rooms) SetPlayerConnected(ctx context.Context, playerID, roomID string, connected bool) error {
	flag := "0"
	if connected {
		flag = "1"
	}
	if err := setConnectedScript.Run(ctx, r.rdb, roomKeys(roomID), playerID, flag, r.ttlSeconds()).Err(); err != nil {
		return fmt.Errorf("set connected: %w", err)
	}
	return nil
}

// FindDisconnectedPlayer returns the first currently-disconnected seat, if any
func (r *Rooms) FindDisconnectedPlayer(ctx context.Context, roomID string) (*Player, error) {
	players, err := r.GetPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for i := range players {
		if !players[i].Connected {
			return &players[i], nil
		}
	}
	return nil, nil
}

// ReplacePlayer atomically rebinds a disconnected seat to a new identity in
// both the player registry and the GameState turn order, keeping the hand
// and submitted title.
func (r *Rooms) ReplacePlayer(ctx context.Context, roomID, oldPlayerID, newPlayerID, newName string) error {
	res, err := replacePlayerScript.Run(ctx, r.rdb, roomKeys(roomID),
		oldPlayerID, newPlayerID, newName, r.ttlSeconds()).Int()
	if err != nil {
		return fmt.Errorf("replace player: %w", err)
	}
	switch res {
	case -1:
		return gameerr.ErrPlayerNotInRoom
	case -2:
		return gameerr.ErrNoSeatAvailable
	}
	r.log.Info("room.seat_replaced", "room_id", roomID, "old", oldPlayerID, "new", newPlayerID)
	return nil
}

// RemovePlayer drops a player and their pooled title (lobby phase only) and
// returns how many players remain; the caller reclaims at zero.
func (r *Rooms) RemovePlayer(ctx context.Context, roomID, playerID string) (int, error) {
	res, err := removePlayerScript.Run(ctx, r.rdb, roomKeys(roomID), playerID).Int()
	if err != nil {
		return 0, fmt.Errorf("remove player: %w", err)
	}
	if res == -1 {
		return 0, gameerr.ErrPlayerNotInRoom
	}
	return res, nil
}

// Reclaim deletes every room-scoped key. Absence of keys is the terminal
// lifecycle state, so reclaiming an already-gone room is a no-op.
func (r *Rooms) Reclaim(ctx context.Context, roomID string) error {
	if err := r.rdb.Del(ctx, roomKeys(roomID)...).Err(); err != nil {
		return fmt.Errorf("reclaim room: %w", err)
	}
	r.log.Info("room.reclaimed", "room_id", roomID)
	return nil
}
