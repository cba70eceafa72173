package store

// Status is the lifecycle state of a room
type Status string

const (
	StatusLobby      Status = "lobby"
	StatusInProgress Status = "inProgress"
	StatusFinished   Status = "finished"

	// statusDealing is set atomically by the submit-title script the moment
	// the fourth title lands, so only one submitter ever observes ready=true.
	// The coordinator moves the room to inProgress once hands are persisted.
	statusDealing Status = "dealing"
)

// Chit is a single card. The ID is unique per dealt instance; the Title is
// the category it belongs to (four chits share each title).
type Chit struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

// Player is the persisted per-player record inside a room
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Title     string `json:"title,omitempty"`
}

// GameState is the single authoritative game object for one room.
// Players is the turn order; Hands is index-aligned with Players.
type GameState struct {
	Players            []string `json:"players"`
	Hands              [][]Chit `json:"hands"`
	CurrentPlayerIndex int      `json:"currentPlayerIndex"`
	GameStatus         Status   `json:"gameStatus"`
	Winner             string   `json:"winner,omitempty"`
}

// PlayerIndex returns the seat of playerID in the turn order, or -1
func (s *GameState) PlayerIndex(playerID string) int {
	for i, p := range s.Players {
		if p == playerID {
			return i
		}
	}
	return -1
}
