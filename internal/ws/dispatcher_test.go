package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuneerAhmed03/parchi/internal/store"
)

func newTestSession(t *testing.T, st Store) (*session, *Conn) {
	t.Helper()
	log := testLogger()
	reg := NewRegistry(log, time.Minute)
	bc := NewBroadcaster(reg, st, nil, log)
	co := NewCoordinator(st, reg, bc, log, 0, nil)
	h := NewHub(log, reg, co)

	c := &Conn{out: make(chan []byte, 16)}
	return &session{hub: h, conn: c}, c
}

// drainFrames empties the connection's outbound queue into decoded maps
func drainFrames(c *Conn) []map[string]any {
	var out []map[string]any
	for {
		select {
		case raw := <-c.out:
			var m map[string]any
			_ = json.Unmarshal(raw, &m)
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestHandleMalformedPayload(t *testing.T) {
	sess, c := newTestSession(t, newFakeStore())

	sess.handle(context.Background(), []byte("{not json"))

	frames := drainFrames(c)
	require.Len(t, frames, 1)
	assert.Equal(t, "error", frames[0]["type"])
	assert.Equal(t, "malformed message", frames[0]["message"])
}

func TestHandleUnknownType(t *testing.T) {
	sess, c := newTestSession(t, newFakeStore())

	sess.handle(context.Background(), []byte(`{"type":"teleport","roomId":"AB12C"}`))

	frames := drainFrames(c)
	require.Len(t, frames, 1)
	assert.Equal(t, "unknown message type: teleport", frames[0]["message"])
}

func TestHandleJoinBindsSession(t *testing.T) {
	st := newFakeStore()
	st.seedRoom("AB12C", store.StatusLobby, fourPlayers[0])
	sess, c := newTestSession(t, st)

	sess.handle(context.Background(), []byte(`{"type":"join_room","roomId":"AB12C","playerId":"p1","playerName":"asha"}`))

	assert.Equal(t, "p1", sess.playerID)
	assert.Equal(t, "AB12C", sess.roomID)

	frames := drainFrames(c)
	require.NotEmpty(t, frames)
	assert.Equal(t, "lobby", frames[0]["type"])

	got, ok := sess.hub.reg.Get("p1")
	require.True(t, ok)
	assert.Same(t, c, got.(*Conn))
}

func TestHandleDefaultsPlayerIDFromSession(t *testing.T) {
	st := newFakeStore()
	inProgressRoom(st, "AB12C")
	sess, c := newTestSession(t, st)
	sess.playerID, sess.roomID = "p1", "AB12C"
	sess.hub.reg.Register("p1", "AB12C", c)

	// no playerId in the envelope; the bound identity fills it in
	sess.handle(context.Background(), []byte(`{"type":"play_card","roomId":"AB12C","cardIndex":0}`))

	frames := drainFrames(c)
	require.NotEmpty(t, frames)
	assert.Equal(t, "gameState", frames[0]["type"])
}

func TestHandleDomainErrorGoesToSenderOnly(t *testing.T) {
	st := newFakeStore()
	inProgressRoom(st, "AB12C")
	sess, c := newTestSession(t, st)
	other := newFakeConn()
	sess.hub.reg.Register("p1", "AB12C", other)

	// p3 plays out of turn
	sess.handle(context.Background(), []byte(`{"type":"play_card","roomId":"AB12C","playerId":"p3","cardIndex":0}`))

	frames := drainFrames(c)
	require.Len(t, frames, 1)
	assert.Equal(t, "error", frames[0]["type"])
	assert.Equal(t, "not your turn", frames[0]["message"])
	assert.Empty(t, other.frames(), "errors never fan out to the room")
}

// downStore simulates the backing store being unreachable
type downStore struct{ *fakeStore }

func (d *downStore) GetGameState(context.Context, string) (*store.GameState, error) {
	return nil, errors.New("connection refused")
}

func TestHandleInfraErrorIsOpaque(t *testing.T) {
	st := newFakeStore()
	inProgressRoom(st, "AB12C")
	sess, c := newTestSession(t, &downStore{fakeStore: st})

	sess.handle(context.Background(), []byte(`{"type":"play_card","roomId":"AB12C","playerId":"p1","cardIndex":0}`))

	frames := drainFrames(c)
	require.Len(t, frames, 1)
	assert.Equal(t, "An unexpected error occurred", frames[0]["message"])
}

func TestHandleRoomExitClearsBinding(t *testing.T) {
	st := newFakeStore()
	st.seedRoom("AB12C", store.StatusLobby, fourPlayers[0], fourPlayers[1])
	sess, c := newTestSession(t, st)
	sess.playerID, sess.roomID = "p1", "AB12C"
	sess.hub.reg.Register("p1", "AB12C", c)

	sess.handle(context.Background(), []byte(`{"type":"room_exit","roomId":"AB12C","playerId":"p1"}`))

	assert.Empty(t, sess.playerID)
	assert.Empty(t, sess.roomID)
	_, ok := sess.hub.reg.Get("p1")
	assert.False(t, ok)
}
