package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/sasmint-go/internal/core/domain"
	"github.com/yndnr/sasmint-go/internal/core/service"
)

// HandleIssueToken handles POST /v1/devices/{id}/token.
func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("id")

	var req IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body")
		return
	}
	if req.LifetimeMinutes == 0 {
		h.writeError(w, r, http.StatusBadRequest,
			domain.ErrLifetimeOutOfRange.Code, "lifetime_minutes is required")
		return
	}

	cred, err := h.issuer.Issue(r.Context(), &service.IssueRequest{
		DeviceID:        deviceID,
		LifetimeMinutes: req.LifetimeMinutes,
		KeySlot:         domain.KeySlot(req.KeySlot),
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, IssueTokenResponse{
		DeviceID:  cred.DeviceID,
		Resource:  cred.Resource,
		Token:     cred.Token,
		KeySlot:   string(cred.KeySlot),
		IssuedAt:  cred.IssuedAt,
		ExpiresAt: cred.ExpiresAt,
	})
}
