package handler

import "time"

// Response is the standard API response envelope. All JSON responses
// use this format; /metrics uses the Prometheus exposition format.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// IssueTokenRequest is the request body for POST /v1/devices/{id}/token.
type IssueTokenRequest struct {
	LifetimeMinutes uint32 `json:"lifetime_minutes"`
	KeySlot         string `json:"key_slot,omitempty"`
}

// IssueTokenResponse is the response body for POST /v1/devices/{id}/token.
type IssueTokenResponse struct {
	DeviceID  string `json:"device_id"`
	Resource  string `json:"resource"`
	Token     string `json:"token"`
	KeySlot   string `json:"key_slot"`
	IssuedAt  uint64 `json:"issued_at"`
	ExpiresAt uint64 `json:"expires_at"`
}

// RegisterDeviceRequest is the request body for POST /v1/devices.
type RegisterDeviceRequest struct {
	ID  string `json:"id"`
	Hub string `json:"hub"`
}

// DeviceResponse represents a device in API responses. Key material is
// never included.
type DeviceResponse struct {
	ID        string `json:"id"`
	Hub       string `json:"hub"`
	Disabled  bool   `json:"disabled"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// ListDevicesResponse is the response body for GET /v1/devices.
type ListDevicesResponse struct {
	Devices []DeviceResponse `json:"devices"`
	Total   int              `json:"total"`
}

// UpdateDeviceStatusRequest is the request body for
// POST /v1/devices/{id}/status.
type UpdateDeviceStatusRequest struct {
	Disabled bool `json:"disabled"`
}

// RotateDeviceKeyRequest is the request body for
// POST /v1/devices/{id}/rotate.
type RotateDeviceKeyRequest struct {
	KeySlot string `json:"key_slot"`
}

// CreateAPIKeyRequest is the request body for POST /admin/v1/keys.
type CreateAPIKeyRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// CreateAPIKeyResponse is the response body for POST /admin/v1/keys.
// The secret appears here exactly once.
type CreateAPIKeyResponse struct {
	KeyID     string `json:"key_id"`
	Secret    string `json:"secret"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
}

// APIKeyResponse represents an API key in list responses.
type APIKeyResponse struct {
	KeyID     string `json:"key_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Disabled  bool   `json:"disabled"`
	CreatedAt int64  `json:"created_at"`
	LastUsed  int64  `json:"last_used,omitempty"`
}

// ListAPIKeysResponse is the response body for GET /admin/v1/keys.
type ListAPIKeysResponse struct {
	Keys []APIKeyResponse `json:"keys"`
}

// UpdateAPIKeyStatusRequest is the request body for
// POST /admin/v1/keys/{key_id}/status.
type UpdateAPIKeyStatusRequest struct {
	Disabled bool `json:"disabled"`
}

// StatusSummaryResponse is the response body for
// GET /admin/v1/status/summary.
type StatusSummaryResponse struct {
	Version      string `json:"version"`
	Commit       string `json:"commit"`
	DeviceCount  int    `json:"device_count"`
	APIKeyCount  int    `json:"api_key_count"`
	StorageBytes uint64 `json:"storage_bytes,omitempty"`
}

// GCTriggerResponse is the response body for POST /admin/v1/gc/trigger.
type GCTriggerResponse struct {
	BytesReclaimed uint64 `json:"bytes_reclaimed"`
}
