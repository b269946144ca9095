package lobby

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// GameCreator provisions the actual session when a lobby is created.
type GameCreator interface {
	ProvisionGame(id, name, owner string, maxPlayers int) error
}

// Handler serves the matchmaking HTTP API.
type Handler struct {
	manager    *Manager
	creator    GameCreator
	maxPlayers int
	logger     *zap.Logger
}

// NewHandler wires the lobby API.
func NewHandler(manager *Manager, creator GameCreator, defaultMaxPlayers int, logger *zap.Logger) *Handler {
	return &Handler{
		manager:    manager,
		creator:    creator,
		maxPlayers: defaultMaxPlayers,
		logger:     logger,
	}
}

// Register attaches the lobby routes to a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/games", h.handleGames)
	mux.HandleFunc("/games/", h.handleGame)
	mux.HandleFunc("/health", h.handleHealth)
}

func (h *Handler) handleGames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.manager.List())
	case http.MethodPost:
		h.createGame(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type createRequest struct {
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	MaxPlayers int    `json:"max_players"`
}

func (h *Handler) createGame(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Owner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing required fields: name, owner"})
		return
	}
	if req.MaxPlayers <= 0 {
		req.MaxPlayers = h.maxPlayers
	}

	meta := h.manager.Create(req.Name, req.Owner, req.MaxPlayers)
	if err := h.creator.ProvisionGame(meta.ID, meta.Name, meta.Owner, meta.MaxPlayers); err != nil {
		h.manager.Update(meta.ID, 0, StatusEnded)
		h.logger.Error("could not provision game", zap.String("game_id", meta.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not create game"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": meta.ID})
}

func (h *Handler) handleGame(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/games/")
	switch r.Method {
	case http.MethodGet:
		meta, ok := h.manager.Get(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "game not found"})
			return
		}
		writeJSON(w, http.StatusOK, meta)
	case http.MethodPut:
		h.updateGame(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type updateRequest struct {
	NumPlayers int    `json:"num_players"`
	Status     string `json:"status"`
}

// updateGame is the internal status-update route. Setting status to ended
// removes the game from the listing.
func (h *Handler) updateGame(w http.ResponseWriter, r *http.Request, id string) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	switch req.Status {
	case StatusInLobby, StatusInGame, StatusEnded:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}
	if _, ok := h.manager.Get(id); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "game not found"})
		return
	}
	h.manager.Update(id, req.NumPlayers, req.Status)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"games":  len(h.manager.List()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
