package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError("SM-DEVC-4040", "device not found")
	if got := err.Error(); got != "[SM-DEVC-4040] device not found" {
		t.Errorf("Error() = %q", got)
	}

	withDetails := err.WithDetails("id=thermostat-7")
	if got := withDetails.Error(); got != "[SM-DEVC-4040] device not found: id=thermostat-7" {
		t.Errorf("Error() with details = %q", got)
	}
}

func TestDomainError_Is(t *testing.T) {
	err := ErrDeviceNotFound.WithDetails("id=dev1")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Error("errors.Is() = false for same code")
	}
	if errors.Is(err, ErrDeviceConflict) {
		t.Error("errors.Is() = true for different code")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrStorageError.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not find the cause")
	}
}

func TestDomainError_WrappedInChain(t *testing.T) {
	err := fmt.Errorf("issue device credential: %w", ErrDeviceDisabled)
	if !errors.Is(err, ErrDeviceDisabled) {
		t.Error("errors.Is() = false through fmt wrapping")
	}
	if GetErrorCode(err) != "SM-DEVC-4030" {
		t.Errorf("GetErrorCode() = %q, want SM-DEVC-4030", GetErrorCode(err))
	}
}

func TestGetErrorCode_NonDomainError(t *testing.T) {
	if code := GetErrorCode(errors.New("plain")); code != "" {
		t.Errorf("GetErrorCode(plain) = %q, want empty", code)
	}
}
