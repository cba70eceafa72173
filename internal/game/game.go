// Package game holds the card-matching rules: deck construction, dealing,
// turn resolution, and win verification. It is a stateless transformation
// over an already-loaded GameState; persistence and synchronization live in
// the coordinator above it.
package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/MuneerAhmed03/parchi/internal/store"
	"github.com/MuneerAhmed03/parchi/pkg/gameerr"
)

const chitsPerTitle = 4

// Deal builds a deck of four chits per submitted title, shuffles it, and
// deals four to each player. Players is the turn order; index 0 opens.
func Deal(titles, players []string) (*store.GameState, error) {
	if len(titles) != len(players) {
		return nil, fmt.Errorf("deal: %d titles for %d players", len(titles), len(players))
	}

	deck := make([]store.Chit, 0, len(titles)*chitsPerTitle)
	for _, title := range titles {
		for i := 0; i < chitsPerTitle; i++ {
			deck = append(deck, store.Chit{Title: title, ID: uuid.NewString()})
		}
	}
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	hands := make([][]store.Chit, len(players))
	for i := range players {
		// own backing array per hand; they grow and shrink independently
		hands[i] = append([]store.Chit(nil), deck[i*chitsPerTitle:(i+1)*chitsPerTitle]...)
	}

	return &store.GameState{
		Players:            players,
		Hands:              hands,
		CurrentPlayerIndex: 0,
		GameStatus:         store.StatusInProgress,
	}, nil
}

// Play moves the chosen card from the player's hand to the next player's and
// advances the turn. Mutates s in place; the caller persists it.
func Play(s *store.GameState, playerID string, cardIndex int) error {
	if s.GameStatus != store.StatusInProgress {
		return gameerr.ErrNotInProgress
	}
	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return gameerr.ErrPlayerNotInRoom
	}
	if idx != s.CurrentPlayerIndex {
		return gameerr.ErrNotYourTurn
	}
	hand := s.Hands[idx]
	if cardIndex < 0 || cardIndex >= len(hand) {
		return gameerr.ErrInvalidCardIndex
	}

	card := hand[cardIndex]
	s.Hands[idx] = append(hand[:cardIndex:cardIndex], hand[cardIndex+1:]...)

	next := (idx + 1) % len(s.Players)
	s.Hands[next] = append(s.Hands[next], card)
	s.CurrentPlayerIndex = next
	return nil
}

// ClaimWin verifies the player's hand is four of a kind. On success the
// state is marked finished with the winner recorded and true is returned;
// a wrong claim leaves the state untouched.
func ClaimWin(s *store.GameState, playerID string) (bool, error) {
	if s.GameStatus != store.StatusInProgress {
		return false, gameerr.ErrNotInProgress
	}
	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return false, gameerr.ErrPlayerNotInRoom
	}

	if !allOneTitle(s.Hands[idx]) {
		return false, nil
	}
	s.GameStatus = store.StatusFinished
	s.Winner = playerID
	return true, nil
}

func allOneTitle(hand []store.Chit) bool {
	if len(hand) == 0 {
		return false
	}
	for _, c := range hand {
		if c.Title != hand[0].Title {
			return false
		}
	}
	return true
}
