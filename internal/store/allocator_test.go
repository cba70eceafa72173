package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuneerAhmed03/parchi/pkg/gameerr"
)

type existsFunc func(ctx context.Context, roomID string) (bool, error)

func (f existsFunc) RoomExists(ctx context.Context, roomID string) (bool, error) {
	return f(ctx, roomID)
}

func neverExists(context.Context, string) (bool, error) { return false, nil }

func TestAlphabetAvoidsAmbiguousGlyphs(t *testing.T) {
	assert.Len(t, idAlphabet, 32)
	assert.False(t, strings.ContainsAny(idAlphabet, "IO01"),
		"ids get read aloud and typed; lookalike glyphs stay out")
}

func TestGenerateProducesWellFormedIDs(t *testing.T) {
	a := NewAllocator(existsFunc(neverExists), 5)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := a.Generate(context.Background())
		require.NoError(t, err)
		assert.Len(t, id, 5)
		for _, r := range id {
			assert.Contains(t, idAlphabet, string(r))
		}
		assert.False(t, seen[id], "id %s handed out twice", id)
		seen[id] = true
	}
}

func TestGenerateSkipsStoreCollisions(t *testing.T) {
	var checked []string
	a := NewAllocator(existsFunc(func(_ context.Context, roomID string) (bool, error) {
		checked = append(checked, roomID)
		// the first candidate is always "taken"
		return len(checked) == 1, nil
	}), 5)

	id, err := a.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, checked, 2)
	assert.Equal(t, checked[1], id)
	assert.NotEqual(t, checked[0], id)
}

func TestGenerateExhaustion(t *testing.T) {
	calls := 0
	a := NewAllocator(existsFunc(func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}), 5)

	_, err := a.Generate(context.Background())
	assert.ErrorIs(t, err, ErrNoRoomsAvailable)
	assert.Equal(t, maxAttempts, calls)
}

func TestReleaseFreesReservation(t *testing.T) {
	a := NewAllocator(existsFunc(neverExists), 1)
	for _, r := range idAlphabet {
		a.reserved[string(r)] = struct{}{}
	}

	_, err := a.Generate(context.Background())
	assert.ErrorIs(t, err, ErrNoRoomsAvailable)

	// free a handful so a random candidate lands on one of them
	freed := []string{"A", "B", "C", "2", "3", "4"}
	for _, id := range freed {
		a.Release(id)
	}
	id, err := a.Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, freed, id)
}

func TestRoomKeyLayout(t *testing.T) {
	keys := roomKeys("AB12C")
	require.Len(t, keys, 4)
	assert.Equal(t, "room:AB12C", keys[0])
	for _, k := range keys[1:] {
		assert.True(t, strings.HasPrefix(k, "room:AB12C:"), "key %s", k)
	}
}

func TestStatusAndErrTitleTaken(t *testing.T) {
	// ErrTitleTaken is a rule violation the player may see verbatim
	var ge *gameerr.Error
	assert.ErrorAs(t, ErrTitleTaken, &ge)
	assert.NotEmpty(t, ge.Error())
}
