package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/sasmint-go/internal/core/domain"
)

// HandleCreateAPIKey handles POST /admin/v1/keys.
func (h *Handler) HandleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "name is required")
		return
	}

	key, secret, err := h.auth.CreateKey(r.Context(), req.Name, domain.Role(req.Role))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, CreateAPIKeyResponse{
		KeyID:     key.ID,
		Secret:    secret,
		Name:      key.Name,
		Role:      string(key.Role),
		CreatedAt: key.CreatedAt,
	})
}

// HandleListAPIKeys handles GET /admin/v1/keys.
func (h *Handler) HandleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.auth.ListKeys(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	resp := ListAPIKeysResponse{Keys: make([]APIKeyResponse, 0, len(keys))}
	for _, key := range keys {
		resp.Keys = append(resp.Keys, APIKeyResponse{
			KeyID:     key.ID,
			Name:      key.Name,
			Role:      string(key.Role),
			Disabled:  key.Disabled,
			CreatedAt: key.CreatedAt,
			LastUsed:  key.LastUsed,
		})
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// HandleUpdateAPIKeyStatus handles POST /admin/v1/keys/{key_id}/status.
func (h *Handler) HandleUpdateAPIKeyStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateAPIKeyStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body")
		return
	}

	key, err := h.auth.SetDisabled(r.Context(), r.PathValue("key_id"), req.Disabled)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, APIKeyResponse{
		KeyID:     key.ID,
		Name:      key.Name,
		Role:      string(key.Role),
		Disabled:  key.Disabled,
		CreatedAt: key.CreatedAt,
		LastUsed:  key.LastUsed,
	})
}
