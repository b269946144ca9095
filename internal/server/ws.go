package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fsf-games/fsf-server/internal/game"
	"github.com/fsf-games/fsf-server/internal/lobby"
	"github.com/fsf-games/fsf-server/internal/session"
)

// client wraps one WebSocket connection. gorilla/websocket allows a single
// concurrent writer, so sends are serialized by the mutex.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(kind string, payload any) error {
	data, err := frame(kind, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) sendError(message string) {
	_ = c.send(frameError, errorPayload{Message: message})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn}
	connID := s.sessions.NewConnID()
	defer s.cleanup(connID)
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.logger.Debug("malformed frame", zap.Error(err))
			continue
		}

		if env.Type == msgJoin {
			s.handleJoin(connID, cl, env.Data)
			continue
		}

		binding, ok := s.sessions.Lookup(connID)
		if !ok {
			cl.sendError("join a game first")
			continue
		}
		s.dispatch(binding, cl, env)
	}
}

func (s *Server) handleJoin(connID string, cl *client, data json.RawMessage) {
	var req joinRequest
	if err := json.Unmarshal(data, &req); err != nil || req.GameID == "" || req.PlayerName == "" {
		cl.sendError("game_id and player_name are required")
		return
	}

	gs, ok := s.sessions.GetGame(req.GameID)
	if !ok {
		cl.sendError("game does not exist")
		return
	}
	if !gs.AddPlayer(req.PlayerName, cl) {
		cl.sendError("could not join game")
		return
	}

	s.sessions.Bind(connID, req.PlayerName, gs)
	s.addToRoom(gs.ID(), req.PlayerName, cl)
	s.pushLobbyStatus(gs)

	snap := gs.Snapshot()
	if err := cl.send(frameInit, initPayload{
		GameName:     gs.Name(),
		GameOwner:    gs.Owner(),
		MaxPlayers:   gs.MaxPlayers(),
		Players:      snap.Players,
		Status:       snap.Status.String(),
		ActivePlayer: snap.Active,
		Phase:        snap.Phase.String(),
	}); err != nil {
		s.logger.Debug("init send failed", zap.String("player", req.PlayerName), zap.Error(err))
	}
	if hand, ok := snap.Hands[req.PlayerName]; ok && len(hand.Items) > 0 {
		s.sendTo(gs.ID(), req.PlayerName, frameItems, hand)
	}

	s.broadcast(gs.ID(), framePlayers, snap.Players)
	s.broadcast(gs.ID(), frameChat, chatPayload{
		Player:  "Server",
		Message: fmt.Sprintf("%s has joined.", req.PlayerName),
	})
}

func (s *Server) dispatch(binding session.Binding, cl *client, env envelope) {
	gs := binding.Game
	player := binding.Player

	switch env.Type {
	case msgReady:
		var req readyRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		s.applyAndNotify(gs, func() []game.Event {
			gs.SetReady(player, req.Ready)
			return nil
		})

	case msgStart:
		started := false
		s.applyAndNotify(gs, func() []game.Event {
			started = gs.Start(player)
			return nil
		})
		if started {
			s.pushLobbyStatus(gs)
			s.broadcast(gs.ID(), frameStartGame, gs.ActivePlayer())
		}

	case msgChat:
		var req chatRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		s.broadcast(gs.ID(), frameChat, chatPayload{Player: player, Message: req.Text})

	case msgAction:
		var req actionRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		s.applyAndNotify(gs, func() []game.Event {
			return gs.HandleAction(player, game.ActionChoice(req.Choice))
		})

	case msgCombat:
		var req combatRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		s.applyAndNotify(gs, func() []game.Event {
			return gs.HandleCombat(player, game.CombatChoice(req.Combat), req.Target)
		})

	case msgItems:
		var req itemsRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		s.applyAndNotify(gs, func() []game.Event {
			return gs.HandleItems(player, req.Items)
		})

	case msgSelectPlayer:
		var req selectPlayerRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		s.applyAndNotify(gs, func() []game.Event {
			return gs.HandleSelectPlayer(player, req.Player)
		})

	default:
		s.logger.Debug("unknown intent", zap.String("type", env.Type), zap.String("player", player))
	}
}

// cleanup runs when a connection drops. The binding is removed first, then
// the session is updated; the registry lock is never held across the
// session call. Disconnecting never forfeits a turn: mid-game the seat
// stays in the turn order.
func (s *Server) cleanup(connID string) {
	binding, ok := s.sessions.Unbind(connID)
	if !ok {
		return
	}
	gs := binding.Game

	s.removeFromRoom(gs.ID(), binding.Player)
	gs.RemovePlayer(binding.Player)

	if gs.Status() == game.StatusLobby && gs.PlayerCount() == 0 {
		s.sessions.RemoveGame(gs.ID())
		s.lobbies.Update(gs.ID(), 0, lobby.StatusEnded)
		s.dropRoom(gs.ID())
		return
	}

	s.pushLobbyStatus(gs)
	snap := gs.Snapshot()
	s.broadcast(gs.ID(), framePlayers, snap.Players)
	s.broadcast(gs.ID(), frameChat, chatPayload{
		Player:  "Server",
		Message: fmt.Sprintf("%s left.", binding.Player),
	})
}
