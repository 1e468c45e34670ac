package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/scrypster/sous/internal/storage"
	"github.com/scrypster/sous/internal/turns"
)

// StatsHandler serves operational counters for the admin API.
type StatsHandler struct {
	store    storage.UserStore
	registry *turns.Registry
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(store storage.UserStore, registry *turns.Registry) *StatsHandler {
	return &StatsHandler{store: store, registry: registry}
}

// statsResponse is the GET /api/stats body.
type statsResponse struct {
	Users       int `json:"users"`
	ActiveTurns int `json:"active_turns"`
}

// GetStats handles GET /api/stats.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.store.CountUsers(r.Context())
	if err != nil {
		log.Printf("stats: failed to count users: %v", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{
		Users:       count,
		ActiveTurns: h.registry.ActiveTurns(),
	})
}
