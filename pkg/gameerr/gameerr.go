package gameerr

import "fmt"

// Error is an expected game-rule violation. Its message is safe to show to
// the player who caused it. Anything that is not a *Error is treated as an
// infrastructure failure and never leaks past the dispatcher.
type Error struct {
	msg string
}

// New creates a domain error with a client-facing message
func New(msg string) *Error { return &Error{msg: msg} }

// Newf creates a domain error from a format string
func Newf(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return e.msg }

// The fixed set of rule violations the engine can produce
var (
	ErrRoomNotFound     = New("room not found")
	ErrRoomFull         = New("room is full")
	ErrPlayerNotInRoom  = New("player not in room")
	ErrNotYourTurn      = New("not your turn")
	ErrInvalidCardIndex = New("invalid card index")
	ErrNotInProgress    = New("game is not in progress")
	ErrStateNotFound    = New("game state not found")
	ErrNoSeatAvailable  = New("game in progress, no seat available")
)
