package api

import (
	"net/http"
	"time"

	"github.com/ampline/ampline/internal/api/respond"
	"github.com/ampline/ampline/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(s store.Store) *HealthHandler { return &HealthHandler{store: s} }

// CheckHealth handles GET /api/health.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": RequestID(r.Context()),
	})
}

// CheckStorageHealth handles GET /api/health/db by pinging the store.
func (h *HealthHandler) CheckStorageHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthPing(r.Context()); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error(), RequestID(r.Context()))
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"request_id": RequestID(r.Context()),
	})
}
