// Package server is the WebSocket transport in front of the rules engine:
// it decodes player intents, applies them to the owning session, and
// broadcasts the state channels that actually changed.
package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fsf-games/fsf-server/internal/auth"
	"github.com/fsf-games/fsf-server/internal/config"
	"github.com/fsf-games/fsf-server/internal/game"
	"github.com/fsf-games/fsf-server/internal/lobby"
	"github.com/fsf-games/fsf-server/internal/repository"
	"github.com/fsf-games/fsf-server/internal/session"
)

// Server holds the transport-side registries. Rooms (game id -> player ->
// connection) and buses are guarded by their own lock, which is never held
// across a session-lock acquisition.
type Server struct {
	rules    game.Rules
	content  game.ContentSource
	sessions *session.Manager
	lobbies  *lobby.Manager
	users    *repository.UserRepository // nil disables accounts
	tokens   *auth.TokenStore
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]map[string]*client
	buses map[string]*game.EventBus
}

// New wires the transport.
func New(cfg config.GameConfig, content game.ContentSource, sessions *session.Manager, lobbies *lobby.Manager, users *repository.UserRepository, tokens *auth.TokenStore, logger *zap.Logger) *Server {
	return &Server{
		rules: game.Rules{
			StartingHealth: cfg.StartingHealth,
			HandLimit:      cfg.HandLimit,
			ItemCost:       cfg.ItemCost,
			CoinsPerTake:   cfg.CoinsPerTake,
			CombatDraw:     cfg.CombatDraw,
		},
		content:  content,
		sessions: sessions,
		lobbies:  lobbies,
		users:    users,
		tokens:   tokens,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[string]*client),
		buses: make(map[string]*game.EventBus),
	}
}

// Register attaches the WebSocket and account routes to a mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	if s.users != nil {
		mux.HandleFunc("/register", s.handleRegister)
		mux.HandleFunc("/login", s.handleLogin)
	}
}

// ProvisionGame creates the session backing a freshly created lobby and
// hooks its animation forwarder to the session event bus.
func (s *Server) ProvisionGame(id, name, owner string, maxPlayers int) error {
	gs, err := s.sessions.CreateGame(id, name, owner, maxPlayers, s.rules, s.content, nil)
	if err != nil {
		return err
	}

	bus := game.NewEventBus()
	for _, kind := range []game.EventType{
		game.EventCombat, game.EventCoins, game.EventShop, game.EventFlip,
		game.EventFight, game.EventSpare, game.EventFlee, game.EventTurn,
	} {
		bus.Subscribe(kind, s.animationForwarder(gs.ID()))
	}

	s.mu.Lock()
	s.rooms[gs.ID()] = make(map[string]*client)
	s.buses[gs.ID()] = bus
	s.mu.Unlock()
	return nil
}

// animationForwarder turns engine events into cosmetic ANIMATION frames.
func (s *Server) animationForwarder(gameID string) game.Listener {
	return func(ev game.Event) {
		s.broadcast(gameID, frameAnimation, animationPayload{
			Kind:   string(ev.Type),
			Player: ev.Player,
			Target: ev.Target,
			Amount: ev.Amount,
		})
	}
}

func (s *Server) busFor(gameID string) *game.EventBus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buses[gameID]
}

func (s *Server) addToRoom(gameID, player string, cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[gameID]
	if !ok {
		room = make(map[string]*client)
		s.rooms[gameID] = room
	}
	room[player] = cl
}

func (s *Server) removeFromRoom(gameID, player string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[gameID]; ok {
		delete(room, player)
	}
}

func (s *Server) dropRoom(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, gameID)
	delete(s.buses, gameID)
}

// broadcast sends one frame to every connection in a room.
func (s *Server) broadcast(gameID, kind string, payload any) {
	s.mu.Lock()
	targets := make([]*client, 0, len(s.rooms[gameID]))
	for _, cl := range s.rooms[gameID] {
		targets = append(targets, cl)
	}
	s.mu.Unlock()

	for _, cl := range targets {
		if err := cl.send(kind, payload); err != nil {
			s.logger.Debug("broadcast send failed", zap.String("game_id", gameID), zap.Error(err))
		}
	}
}

// sendTo sends one frame to a single player's connection, if present.
func (s *Server) sendTo(gameID, player, kind string, payload any) {
	s.mu.Lock()
	cl := s.rooms[gameID][player]
	s.mu.Unlock()
	if cl == nil {
		return
	}
	if err := cl.send(kind, payload); err != nil {
		s.logger.Debug("send failed", zap.String("game_id", gameID), zap.String("player", player), zap.Error(err))
	}
}

// applyAndNotify runs one intent against a session, publishes the raised
// events after the session lock is back open, and pushes exactly the
// channels whose snapshot content changed.
func (s *Server) applyAndNotify(gs *game.GameState, apply func() []game.Event) {
	before := gs.Snapshot()
	events := apply()
	after := gs.Snapshot()

	if bus := s.busFor(gs.ID()); bus != nil {
		bus.PublishAll(events)
	}

	diff := game.Diff(before, after)
	if diff.Players {
		s.broadcast(gs.ID(), framePlayers, after.Players)
	}
	if diff.Board {
		s.broadcast(gs.ID(), frameBoard, after.Board)
	}
	if diff.Turn {
		s.broadcast(gs.ID(), frameTurn, turnPayload{
			Active:   after.Active,
			Required: after.Required,
			Phase:    after.Phase.String(),
		})
	}
	for _, name := range diff.Hands {
		s.sendTo(gs.ID(), name, frameItems, after.Hands[name])
	}
}

func lobbyStatus(status game.Status) string {
	switch status {
	case game.StatusGame:
		return lobby.StatusInGame
	case game.StatusEnded:
		return lobby.StatusEnded
	default:
		return lobby.StatusInLobby
	}
}

// pushLobbyStatus mirrors roster and lifecycle changes into the browser
// listing.
func (s *Server) pushLobbyStatus(gs *game.GameState) {
	s.lobbies.Update(gs.ID(), gs.PlayerCount(), lobbyStatus(gs.Status()))
}
