// Package session maps game ids to running sessions and connection ids to
// (player, session) bindings.
//
// The two registries are guarded by independent locks, and neither lock is
// ever held while a session's own lock is taken: callers resolve a binding,
// release the registry, then act on the session. This keeps the cleanup
// path (connection drops while a session is busy) deadlock-free.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fsf-games/fsf-server/internal/game"
)

// Binding ties a connection to a seated player in one session.
type Binding struct {
	Player string
	Game   *game.GameState
}

// Manager owns both registries.
type Manager struct {
	logger *zap.Logger

	gamesMu sync.RWMutex
	games   map[string]*game.GameState

	connsMu sync.RWMutex
	conns   map[string]Binding
}

// NewManager creates an empty session manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger,
		games:  make(map[string]*game.GameState),
		conns:  make(map[string]Binding),
	}
}

// CreateGame registers a new session. An empty id gets a generated UUID.
func (m *Manager) CreateGame(id, name, owner string, maxPlayers int, rules game.Rules, content game.ContentSource, dice game.Dice) (*game.GameState, error) {
	if id == "" {
		id = uuid.New().String()
	}

	m.gamesMu.Lock()
	defer m.gamesMu.Unlock()

	if _, exists := m.games[id]; exists {
		return nil, fmt.Errorf("game %s already exists", id)
	}
	gs := game.NewGameState(id, name, owner, maxPlayers, rules, content, dice, m.logger)
	m.games[id] = gs

	m.logger.Info("game created",
		zap.String("game_id", id),
		zap.String("name", name),
		zap.String("owner", owner),
		zap.Int("max_players", maxPlayers),
	)
	return gs, nil
}

// GetGame looks up a session by id.
func (m *Manager) GetGame(id string) (*game.GameState, bool) {
	m.gamesMu.RLock()
	defer m.gamesMu.RUnlock()
	gs, ok := m.games[id]
	return gs, ok
}

// RemoveGame drops a session from the registry.
func (m *Manager) RemoveGame(id string) {
	m.gamesMu.Lock()
	defer m.gamesMu.Unlock()
	delete(m.games, id)
	m.logger.Info("game removed", zap.String("game_id", id))
}

// GameCount returns the number of registered sessions.
func (m *Manager) GameCount() int {
	m.gamesMu.RLock()
	defer m.gamesMu.RUnlock()
	return len(m.games)
}

// NewConnID allocates an opaque connection identifier.
func (m *Manager) NewConnID() string {
	return uuid.New().String()
}

// Bind associates a connection with a seated player.
func (m *Manager) Bind(connID, player string, gs *game.GameState) {
	m.connsMu.Lock()
	defer m.connsMu.Unlock()
	m.conns[connID] = Binding{Player: player, Game: gs}
}

// Lookup resolves a connection to its binding.
func (m *Manager) Lookup(connID string) (Binding, bool) {
	m.connsMu.RLock()
	defer m.connsMu.RUnlock()
	binding, ok := m.conns[connID]
	return binding, ok
}

// Unbind removes a connection's binding and returns it, if any. The caller
// performs session cleanup afterwards, outside this registry's lock.
func (m *Manager) Unbind(connID string) (Binding, bool) {
	m.connsMu.Lock()
	defer m.connsMu.Unlock()
	binding, ok := m.conns[connID]
	if ok {
		delete(m.conns, connID)
	}
	return binding, ok
}

// ConnCount returns the number of bound connections.
func (m *Manager) ConnCount() int {
	m.connsMu.RLock()
	defer m.connsMu.RUnlock()
	return len(m.conns)
}
