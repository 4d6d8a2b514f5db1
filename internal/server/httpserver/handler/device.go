package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/sasmint-go/internal/core/domain"
)

func deviceResponse(dev *domain.Device) DeviceResponse {
	return DeviceResponse{
		ID:        dev.ID,
		Hub:       dev.Hub,
		Disabled:  dev.Disabled,
		CreatedAt: dev.CreatedAt,
		UpdatedAt: dev.UpdatedAt,
	}
}

// HandleRegisterDevice handles POST /v1/devices.
func (h *Handler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body")
		return
	}

	dev, err := h.registry.Register(r.Context(), req.ID, req.Hub)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, deviceResponse(dev))
}

// HandleListDevices handles GET /v1/devices.
func (h *Handler) HandleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.registry.List(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	resp := ListDevicesResponse{
		Devices: make([]DeviceResponse, 0, len(devices)),
		Total:   len(devices),
	}
	for _, dev := range devices {
		resp.Devices = append(resp.Devices, deviceResponse(dev))
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// HandleGetDevice handles GET /v1/devices/{id}.
func (h *Handler) HandleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := h.registry.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, deviceResponse(dev))
}

// HandleDeleteDevice handles DELETE /v1/devices/{id}.
func (h *Handler) HandleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleUpdateDeviceStatus handles POST /v1/devices/{id}/status.
func (h *Handler) HandleUpdateDeviceStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateDeviceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body")
		return
	}

	dev, err := h.registry.SetDisabled(r.Context(), r.PathValue("id"), req.Disabled)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, deviceResponse(dev))
}

// HandleRotateDeviceKey handles POST /v1/devices/{id}/rotate.
func (h *Handler) HandleRotateDeviceKey(w http.ResponseWriter, r *http.Request) {
	var req RotateDeviceKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, "invalid request body")
		return
	}
	slot := req.KeySlot
	if slot == "" {
		slot = string(domain.SlotSecondary)
	}

	dev, err := h.registry.Rotate(r.Context(), r.PathValue("id"), domain.KeySlot(slot))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, deviceResponse(dev))
}
