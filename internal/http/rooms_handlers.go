package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MuneerAhmed03/parchi/internal/store"
	"github.com/MuneerAhmed03/parchi/pkg/gameerr"
	"github.com/MuneerAhmed03/parchi/pkg/metrics"
)

// RoomsAPI is the HTTP front door for room creation and lookup; everything
// after that happens over the websocket.
type RoomsAPI struct {
	Store *store.Rooms
	Alloc *store.Allocator
	Log   *slog.Logger
}

type createRoomReq struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type createRoomResp struct {
	RoomID string `json:"roomId"`
}

type joinRoomReq struct {
	RoomID     string `json:"roomId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type joinRoomResp struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Create allocates a fresh room id and creates the room with the caller as
// its first player
func (a *RoomsAPI) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	req.PlayerName = strings.TrimSpace(req.PlayerName)
	if req.PlayerID == "" || req.PlayerName == "" {
		http.Error(w, "playerId and playerName required", http.StatusBadRequest)
		return
	}

	roomID, err := a.Alloc.Generate(r.Context())
	if err != nil {
		a.Log.Error("room.allocate", "err", err)
		http.Error(w, "unexpected error", http.StatusInternalServerError)
		return
	}

	if err := a.Store.CreateRoom(r.Context(), roomID, req.PlayerID, req.PlayerName); err != nil {
		a.Alloc.Release(roomID)
		a.Log.Error("room.create", "room_id", roomID, "err", err)
		http.Error(w, "unexpected error", http.StatusInternalServerError)
		return
	}

	metrics.RoomsCreated.Inc()
	writeJSON(w, createRoomResp{RoomID: roomID})
}

// Join adds a player to an existing lobby; capacity and existence are
// reported in the body rather than as transport failures
func (a *RoomsAPI) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if req.RoomID == "" || req.PlayerID == "" {
		http.Error(w, "roomId and playerId required", http.StatusBadRequest)
		return
	}

	err := a.Store.AddPlayer(r.Context(), req.RoomID, req.PlayerID, req.PlayerName)
	switch {
	case err == nil:
		writeJSON(w, joinRoomResp{Success: true})
	case errors.Is(err, gameerr.ErrRoomFull):
		writeJSON(w, joinRoomResp{Success: false, Reason: "room full"})
	case errors.Is(err, gameerr.ErrRoomNotFound):
		writeJSON(w, joinRoomResp{Success: false, Reason: "room not found"})
	default:
		a.Log.Error("room.join", "room_id", req.RoomID, "err", err)
		http.Error(w, "unexpected error", http.StatusInternalServerError)
	}
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
