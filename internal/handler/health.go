package handler

import (
	"net/http"

	"github.com/sahana-ai/assistant-platform/internal/events"
	"github.com/sahana-ai/assistant-platform/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store  *store.Store
	events *events.Publisher
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(st *store.Store, pub *events.Publisher) *HealthHandler {
	return &HealthHandler{
		store:  st,
		events: pub,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.store.Ping() != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "store unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":           "ready",
		"events_connected": boolString(h.events.IsConnected()),
	})
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
