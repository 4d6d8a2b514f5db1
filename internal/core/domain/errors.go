package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured
// error code of the form SM-<AREA>-<NNNN>. Codes are stable API; the
// messages are not.
type DomainError struct {
	Code    string // Error code (e.g. "SM-DEVC-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches DomainErrors by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: details, Cause: e.Cause}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: e.Details, Cause: cause}
}

// GetErrorCode extracts the error code from an error if it is a
// DomainError, or "" otherwise.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Device registry errors (DEVC).
var (
	// ErrDeviceNotFound indicates the requested device is not registered.
	ErrDeviceNotFound = NewDomainError("SM-DEVC-4040", "device not found")

	// ErrDeviceConflict indicates the device ID is already registered.
	ErrDeviceConflict = NewDomainError("SM-DEVC-4090", "device already registered")

	// ErrDeviceValidation indicates device data validation failed.
	ErrDeviceValidation = NewDomainError("SM-DEVC-4001", "device validation failed")

	// ErrDeviceDisabled indicates the device is disabled and may not
	// receive credentials.
	ErrDeviceDisabled = NewDomainError("SM-DEVC-4030", "device disabled")

	// ErrRegistryQuota indicates the registry device quota is exceeded.
	ErrRegistryQuota = NewDomainError("SM-DEVC-4002", "registry quota exceeded")
)

// Credential issuance errors (TOKN).
var (
	// ErrLifetimeOutOfRange indicates the requested lifetime is outside
	// the configured bounds.
	ErrLifetimeOutOfRange = NewDomainError("SM-TOKN-4001", "lifetime out of range")

	// ErrBadKeySlot indicates an unknown key slot was requested.
	ErrBadKeySlot = NewDomainError("SM-TOKN-4002", "unknown key slot")

	// ErrGenerationFailed indicates the signing pipeline failed.
	ErrGenerationFailed = NewDomainError("SM-TOKN-5000", "credential generation failed")
)

// Authentication errors (AUTH).
var (
	// ErrAPIKeyMissing indicates no API key was provided.
	ErrAPIKeyMissing = NewDomainError("SM-AUTH-4010", "api key not provided")

	// ErrAPIKeyInvalid indicates the API key is invalid or unknown.
	ErrAPIKeyInvalid = NewDomainError("SM-AUTH-4011", "invalid api key")

	// ErrAPIKeyDisabled indicates the API key has been disabled.
	ErrAPIKeyDisabled = NewDomainError("SM-AUTH-4012", "api key disabled")

	// ErrPermissionDenied indicates insufficient permissions.
	ErrPermissionDenied = NewDomainError("SM-AUTH-4030", "permission denied")

	// ErrAPIKeyNotFound indicates the API key was not found.
	ErrAPIKeyNotFound = NewDomainError("SM-AUTH-4040", "api key not found")

	// ErrAPIKeyConflict indicates the API key ID already exists.
	ErrAPIKeyConflict = NewDomainError("SM-AUTH-4090", "api key id conflict")

	// ErrRateLimited indicates the API key exceeded its rate limit.
	ErrRateLimited = NewDomainError("SM-AUTH-4290", "rate limit exceeded")
)

// System errors (SYS).
var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("SM-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("SM-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("SM-SYS-4000", "bad request")
)
