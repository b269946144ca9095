// Package lobby tracks game metadata for the server browser and exposes
// the matchmaking HTTP API.
package lobby

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lobby status values shown in the server browser.
const (
	StatusInLobby = "in_lobby"
	StatusInGame  = "in_game"
	StatusEnded   = "ended"
)

// Meta is the browser-facing description of one game.
type Meta struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	NumPlayers int    `json:"num_players"`
	MaxPlayers int    `json:"max_players"`
	Status     string `json:"status"`
}

// Manager holds the lobby listing.
type Manager struct {
	mu     sync.RWMutex
	games  map[string]*Meta
	logger *zap.Logger
}

// NewManager creates an empty lobby manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		games:  make(map[string]*Meta),
		logger: logger,
	}
}

// Create registers a new lobby entry with a generated id.
func (m *Manager) Create(name, owner string, maxPlayers int) *Meta {
	meta := &Meta{
		ID:         uuid.New().String(),
		Name:       name,
		Owner:      owner,
		MaxPlayers: maxPlayers,
		Status:     StatusInLobby,
	}
	m.mu.Lock()
	m.games[meta.ID] = meta
	m.mu.Unlock()

	m.logger.Info("lobby created",
		zap.String("game_id", meta.ID),
		zap.String("name", name),
		zap.String("owner", owner),
	)
	return meta
}

// Get returns a copy of one lobby entry.
func (m *Manager) Get(id string) (Meta, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.games[id]
	if !ok {
		return Meta{}, false
	}
	return *meta, true
}

// List returns copies of all lobby entries.
func (m *Manager) List() []Meta {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Meta, 0, len(m.games))
	for _, meta := range m.games {
		out = append(out, *meta)
	}
	return out
}

// Update refreshes player count and status. Ended games drop out of the
// listing.
func (m *Manager) Update(id string, numPlayers int, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.games[id]
	if !ok {
		return
	}
	meta.NumPlayers = numPlayers
	meta.Status = status
	if status == StatusEnded {
		delete(m.games, id)
		m.logger.Info("lobby deleted", zap.String("game_id", id))
	}
}
