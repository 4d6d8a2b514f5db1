package handler

import (
	"net/http"

	"github.com/yndnr/sasmint-go/internal/infra/buildinfo"
)

// HandleStatusSummary handles GET /admin/v1/status/summary.
func (h *Handler) HandleStatusSummary(w http.ResponseWriter, r *http.Request) {
	resp := StatusSummaryResponse{
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
	}

	devices, err := h.registry.List(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	resp.DeviceCount = len(devices)

	keys, err := h.auth.ListKeys(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	resp.APIKeyCount = len(keys)

	if h.store != nil {
		if stats, err := h.store.Stats(r.Context()); err == nil {
			resp.StorageBytes = stats.TotalSize
		}
	}

	h.writeJSON(w, r, http.StatusOK, resp)
}

// HandleGCTrigger handles POST /admin/v1/gc/trigger.
func (h *Handler) HandleGCTrigger(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeJSON(w, r, http.StatusOK, GCTriggerResponse{})
		return
	}
	reclaimed, err := h.store.GC(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, GCTriggerResponse{BytesReclaimed: reclaimed})
}
