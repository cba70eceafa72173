package store

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
)

// ErrNoRoomsAvailable signals identifier-space exhaustion. It is a fatal
// allocation failure, not a transient one: a hundred straight collisions
// means the space is effectively full.
var ErrNoRoomsAvailable = errors.New("no room identifiers available")

const (
	// 32 characters, with I/O/0/1 left out so ids survive being read aloud
	// or handwritten. A power-of-two size also keeps the byte mapping unbiased.
	idAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxAttempts = 100
)

type existenceChecker interface {
	RoomExists(ctx context.Context, roomID string) (bool, error)
}

// Allocator hands out short random room identifiers that collide neither
// with rooms already in the store nor with ids reserved in this process but
// not yet visible there. Randomness, not a counter, so ids are not guessable
// in sequence.
type Allocator struct {
	store existenceChecker
	idLen int

	mu       sync.Mutex
	reserved map[string]struct{}
}

// NewAllocator creates an allocator producing ids of idLen characters
func NewAllocator(store existenceChecker, idLen int) *Allocator {
	return &Allocator{store: store, idLen: idLen, reserved: map[string]struct{}{}}
}

// Generate reserves and returns a fresh room identifier
func (a *Allocator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		id, err := a.randomID()
		if err != nil {
			return "", err
		}

		a.mu.Lock()
		_, taken := a.reserved[id]
		a.mu.Unlock()
		if taken {
			continue
		}

		exists, err := a.store.RoomExists(ctx, id)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}

		a.mu.Lock()
		a.reserved[id] = struct{}{}
		a.mu.Unlock()
		return id, nil
	}
	return "", ErrNoRoomsAvailable
}

// Release frees a reservation; called once a room is fully reclaimed (or
// never got created).
func (a *Allocator) Release(roomID string) {
	a.mu.Lock()
	delete(a.reserved, roomID)
	a.mu.Unlock()
}

func (a *Allocator) randomID() (string, error) {
	b := make([]byte, a.idLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b), nil
}
