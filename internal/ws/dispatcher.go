package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MuneerAhmed03/parchi/pkg/gameerr"
	"github.com/MuneerAhmed03/parchi/pkg/metrics"
)

// inbound is the typed envelope every client message arrives in
type inbound struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName,omitempty"`
	Title      string `json:"title,omitempty"`
	CardIndex  int    `json:"cardIndex"`
}

// session is the dispatcher for one connection: it remembers which player
// the socket is bound to and routes each envelope to exactly one coordinator
// operation. Failures reach only this connection.
type session struct {
	hub      *Hub
	conn     *Conn
	playerID string
	roomID   string
}

func (s *session) handle(ctx context.Context, payload []byte) {
	metrics.MessagesDispatched.Inc()

	var msg inbound
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.sendError("malformed message")
		return
	}
	if msg.PlayerID == "" {
		msg.PlayerID = s.playerID
	}

	err := s.route(ctx, msg)
	if err == nil {
		return
	}

	var ge *gameerr.Error
	if errors.As(err, &ge) {
		s.hub.log.Debug("dispatch.rejected", "type", msg.Type, "room_id", msg.RoomID, "reason", ge.Error())
		s.sendError(ge.Error())
		return
	}
	s.hub.log.Error("dispatch.failed", "type", msg.Type, "room_id", msg.RoomID, "player_id", msg.PlayerID, "err", err)
	s.sendError("An unexpected error occurred")
}

func (s *session) route(ctx context.Context, msg inbound) error {
	co := s.hub.co
	switch msg.Type {
	case "join_room":
		if err := co.JoinRoom(ctx, msg.RoomID, msg.PlayerID, msg.PlayerName, s.conn); err != nil {
			return err
		}
		s.playerID, s.roomID = msg.PlayerID, msg.RoomID
		return nil
	case "submit_title":
		return co.SubmitTitle(ctx, msg.RoomID, msg.PlayerID, msg.Title)
	case "play_card":
		return co.PlayCard(ctx, msg.RoomID, msg.PlayerID, msg.CardIndex)
	case "claim_win":
		return co.ClaimWin(ctx, msg.RoomID, msg.PlayerID)
	case "room_exit":
		if err := co.LeaveRoom(ctx, msg.RoomID, msg.PlayerID, s.conn); err != nil {
			return err
		}
		if msg.PlayerID == s.playerID {
			s.playerID, s.roomID = "", ""
		}
		return nil
	case "restart":
		return co.Restart(ctx, msg.RoomID)
	default:
		return gameerr.Newf("unknown message type: %s", msg.Type)
	}
}

// sendError goes straight to this connection; other players never see it
func (s *session) sendError(msg string) {
	raw, _ := json.Marshal(map[string]string{"type": "error", "message": msg})
	s.conn.Send(raw)
}
