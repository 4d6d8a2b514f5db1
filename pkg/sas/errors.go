package sas

import "errors"

// Generation errors. Each fallible pipeline stage has its own sentinel
// so callers can tell the failing stage apart with errors.Is; buffer
// exhaustion additionally wraps ErrBufferTooSmall regardless of stage.
// The signature-encode stage has no sentinel: it writes into an
// internal array sized exactly for an encoded HMAC-SHA256 MAC and
// cannot fail.
var (
	// ErrLifetime indicates a non-positive requested lifetime.
	ErrLifetime = errors.New("sas: lifetime must be positive")

	// ErrCanonicalize indicates the canonicalizer could not build the
	// string-to-sign (malformed resource identifier or exhausted
	// payload space).
	ErrCanonicalize = errors.New("sas: canonicalize signature payload")

	// ErrKeyDecode indicates the secret key is not valid base64 or its
	// decoded form does not fit the signature buffer.
	ErrKeyDecode = errors.New("sas: decode secret key")

	// ErrTokenFormat indicates the broker formatter rejected the final
	// assembly.
	ErrTokenFormat = errors.New("sas: format token")

	// ErrBufferTooSmall indicates a caller-owned scratch region is too
	// small for the computed output. Always wrapped by the sentinel of
	// the stage that ran out of space.
	ErrBufferTooSmall = errors.New("buffer too small")
)
