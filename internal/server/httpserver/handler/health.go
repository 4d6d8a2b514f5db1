package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/sasmint-go/internal/core/domain"
)

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReady handles GET /ready. The server is ready once storage
// answers.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if _, err := h.store.Stats(r.Context()); err != nil {
			h.writeError(w, r, http.StatusServiceUnavailable,
				domain.ErrStorageError.Code, "storage not ready")
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
