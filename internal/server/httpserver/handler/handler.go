// Package handler implements the management API endpoints: credential
// issuance, device registry, and API key administration.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/yndnr/sasmint-go/internal/core/domain"
	"github.com/yndnr/sasmint-go/internal/core/service"
	"github.com/yndnr/sasmint-go/internal/storage"
	"github.com/yndnr/sasmint-go/internal/telemetry/logger"
)

// Handler implements the management API handlers.
type Handler struct {
	issuer   *service.IssuerService
	registry *service.RegistryService
	auth     *service.AuthService
	store    storage.KVEngine
	log      logger.Logger
}

// New creates a Handler with the given services. store may be nil;
// the system endpoints then omit storage stats.
func New(issuer *service.IssuerService, registry *service.RegistryService, auth *service.AuthService, store storage.KVEngine, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		issuer:   issuer,
		registry: registry,
		auth:     auth,
		store:    store,
		log:      log,
	}
}

// writeJSON writes a JSON response with the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFrom(r.Context())
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.WithContext(r.Context()).Error("failed to encode response", "error", err.Error())
	}
}

// writeError writes an error response with the standard envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := logger.RequestIDFrom(r.Context())
	response := NewErrorResponse(requestID, code, message)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// serviceError converts service errors to HTTP responses.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		h.writeError(w, r, errorCodeToHTTPStatus(derr.Code), derr.Code, derr.Error())
		return
	}
	h.log.WithContext(r.Context()).Error("internal error", "error", err.Error())
	h.writeError(w, r, http.StatusInternalServerError,
		domain.ErrInternalServer.Code, "internal server error")
}

// errorCodeToHTTPStatus maps SM-* error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4002"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"), strings.HasSuffix(code, "-4012"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
