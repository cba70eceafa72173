package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/MuneerAhmed03/parchi/internal/store"
	"github.com/MuneerAhmed03/parchi/pkg/gameerr"
)

// fakeStore mirrors the redis façade's semantics in memory, including the
// atomicity of submit-title (single lock around check and write).
type fakeStore struct {
	mu       sync.Mutex
	status   map[string]store.Status
	players  map[string]map[string]store.Player
	titles   map[string]map[string]string // roomID -> title -> playerID
	states   map[string]*store.GameState
	reclaims []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		status:  map[string]store.Status{},
		players: map[string]map[string]store.Player{},
		titles:  map[string]map[string]string{},
		states:  map[string]*store.GameState{},
	}
}

func (f *fakeStore) seedRoom(roomID string, status store.Status, players ...store.Player) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[roomID] = status
	f.players[roomID] = map[string]store.Player{}
	f.titles[roomID] = map[string]string{}
	for _, p := range players {
		f.players[roomID][p.ID] = p
		if p.Title != "" {
			f.titles[roomID][p.Title] = p.ID
		}
	}
}

func (f *fakeStore) seedState(roomID string, s *store.GameState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[roomID] = cloneState(s)
}

func (f *fakeStore) state(roomID string) *store.GameState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneState(f.states[roomID])
}

func (f *fakeStore) reclaimed(roomID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.reclaims {
		if id == roomID {
			return true
		}
	}
	return false
}

// cloneState round-trips through JSON, like the real store does
func cloneState(s *store.GameState) *store.GameState {
	if s == nil {
		return nil
	}
	raw, _ := json.Marshal(s)
	var out store.GameState
	_ = json.Unmarshal(raw, &out)
	return &out
}

func (f *fakeStore) GetPlayers(_ context.Context, roomID string) ([]store.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Player, 0, len(f.players[roomID]))
	for _, p := range f.players[roomID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) SubmitTitleAndCheck(_ context.Context, roomID, title, playerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status[roomID] != store.StatusLobby {
		return false, nil
	}
	p, ok := f.players[roomID][playerID]
	if !ok {
		return false, gameerr.ErrPlayerNotInRoom
	}
	if owner, taken := f.titles[roomID][title]; taken && owner != playerID {
		return false, store.ErrTitleTaken
	}
	if p.Title != "" && p.Title != title {
		delete(f.titles[roomID], p.Title)
	}
	p.Title = title
	f.players[roomID][playerID] = p
	f.titles[roomID][title] = playerID
	if len(f.players[roomID]) == 4 && len(f.titles[roomID]) == 4 {
		f.status[roomID] = "dealing"
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) GetTitles(_ context.Context, roomID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.titles[roomID]))
	for t := range f.titles[roomID] {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) GetGameState(_ context.Context, roomID string) (*store.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[roomID]
	if !ok {
		return nil, gameerr.ErrStateNotFound
	}
	return cloneState(s), nil
}

func (f *fakeStore) SaveGameState(_ context.Context, roomID string, s *store.GameState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[roomID] = cloneState(s)
	return nil
}

func (f *fakeStore) SetStatus(_ context.Context, roomID string, status store.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[roomID] = status
	return nil
}

func (f *fakeStore) GetStatus(_ context.Context, roomID string) (store.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.status[roomID]
	if !ok {
		return "", gameerr.ErrRoomNotFound
	}
	return s, nil
}

func (f *fakeStore) SetPlayerConnected(_ context.Context, playerID, roomID string, connected bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.players[roomID][playerID]; ok {
		p.Connected = connected
		f.players[roomID][playerID] = p
	}
	return nil
}

func (f *fakeStore) FindDisconnectedPlayer(ctx context.Context, roomID string) (*store.Player, error) {
	players, err := f.GetPlayers(ctx, roomID)
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

func (f *fakeStore) ReplacePlayer(_ context.Context, roomID, oldPlayerID, newPlayerID, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[roomID][oldPlayerID]
	if !ok {
		return gameerr.ErrPlayerNotInRoom
	}
	if p.Connected {
		return gameerr.ErrNoSeatAvailable
	}
	p.ID = newPlayerID
	if newName != "" {
		p.Name = newName
	}
	p.Connected = true
	delete(f.players[roomID], oldPlayerID)
	f.players[roomID][newPlayerID] = p
	if p.Title != "" {
		f.titles[roomID][p.Title] = newPlayerID
	}
	if s, ok := f.states[roomID]; ok {
		for i, id := range s.Players {
			if id == oldPlayerID {
				s.Players[i] = newPlayerID
			}
		}
	}
	return nil
}

func (f *fakeStore) RemovePlayer(_ context.Context, roomID, playerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[roomID][playerID]
	if !ok {
		return 0, gameerr.ErrPlayerNotInRoom
	}
	if p.Title != "" {
		delete(f.titles[roomID], p.Title)
	}
	delete(f.players[roomID], playerID)
	return len(f.players[roomID]), nil
}

func (f *fakeStore) Reclaim(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.status, roomID)
	delete(f.players, roomID)
	delete(f.titles, roomID)
	delete(f.states, roomID)
	f.reclaims = append(f.reclaims, roomID)
	return nil
}

// fakeConn records everything sent to it
type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
	pingErr error
}

func newFakeConn() *fakeConn { return &fakeConn{} }

func (c *fakeConn) Send(b []byte) {
	c.mu.Lock()
	c.sent = append(c.sent, b)
	c.mu.Unlock()
}

func (c *fakeConn) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	return c.pingErr
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// frames decodes every sent payload into loose maps
func (c *fakeConn) frames() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.sent))
	for _, raw := range c.sent {
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		out = append(out, m)
	}
	return out
}

// framesOfType filters decoded frames by their type field
func (c *fakeConn) framesOfType(kind string) []map[string]any {
	var out []map[string]any
	for _, f := range c.frames() {
		if f["type"] == kind {
			out = append(out, f)
		}
	}
	return out
}
