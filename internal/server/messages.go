package server

import (
	"encoding/json"

	"github.com/fsf-games/fsf-server/internal/game"
)

// Inbound intent kinds.
const (
	msgJoin         = "JOIN"
	msgReady        = "READY"
	msgStart        = "START"
	msgChat         = "CHAT"
	msgAction       = "ACTION"
	msgCombat       = "COMBAT"
	msgItems        = "ITEMS"
	msgSelectPlayer = "PLAYER"
)

// Outbound frame kinds.
const (
	frameInit      = "INIT"
	frameStartGame = "START_GAME"
	framePlayers   = "PLAYERS"
	frameChat      = "CHAT"
	frameTurn      = "CHANGE_TURN"
	frameBoard     = "BOARD"
	frameItems     = "ITEMS"
	frameAnimation = "ANIMATION"
	frameError     = "ERROR"
)

// envelope is the frame shared by both directions: a kind tag plus a
// kind-specific payload.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type joinRequest struct {
	GameID     string `json:"game_id"`
	PlayerName string `json:"player_name"`
}

type readyRequest struct {
	Ready bool `json:"ready"`
}

type chatRequest struct {
	Text string `json:"text"`
}

type actionRequest struct {
	Choice string `json:"choice"`
}

type combatRequest struct {
	Combat string `json:"combat"`
	Target int    `json:"target"`
}

type itemsRequest struct {
	Items []int `json:"items"`
}

type selectPlayerRequest struct {
	Player string `json:"player"`
}

type initPayload struct {
	GameName     string            `json:"game_name"`
	GameOwner    string            `json:"game_owner"`
	MaxPlayers   int               `json:"max_players"`
	Players      []game.PlayerView `json:"players"`
	Status       string            `json:"status"`
	ActivePlayer string            `json:"active_player,omitempty"`
	Phase        string            `json:"phase,omitempty"`
}

type turnPayload struct {
	Active   string `json:"active"`
	Required string `json:"required"`
	Phase    string `json:"phase"`
}

type chatPayload struct {
	Player  string `json:"player"`
	Message string `json:"message"`
}

type animationPayload struct {
	Kind   string `json:"kind"`
	Player string `json:"player"`
	Target int    `json:"target"`
	Amount int    `json:"amount"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func frame(kind string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: kind, Data: data})
}
