package sas

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// SignatureSize is the raw HMAC-SHA256 signature size in bytes.
	SignatureSize = sha256.Size

	// encodedSignatureSize is base64.StdEncoding.EncodedLen(SignatureSize).
	encodedSignatureSize = 44

	// payloadCapacity bounds the canonical string-to-sign.
	payloadCapacity = 256
)

// Generator produces signed, expiring SAS credentials for one resource
// using one secret key.
//
// A Generator holds at most one valid token at a time: every successful
// Generate overwrites the caller-supplied buffers, invalidating the
// storage behind any previously returned view. A failed Generate leaves
// the previous token, its expiration, and the externally visible view
// untouched, so callers may keep presenting the last good credential
// while they retry.
//
// Buffer aliasing: the decoded secret key occupies the signature buffer
// only until the HMAC is keyed (crypto/hmac copies the key at
// construction), after which the 32-byte MAC overwrites the same
// region. The signature buffer must therefore hold
// max(decoded key length, SignatureSize) bytes.
//
// A Generator is not safe for concurrent use; it mutates its scratch
// buffers in place and updates token/expiration state non-atomically.
type Generator struct {
	key    []byte // base64 secret key, borrowed from the caller
	canon  Canonicalizer
	format Formatter
	clock  Clock

	sigBuf   []byte // caller-owned: decoded key, then raw MAC
	tokenBuf []byte // caller-owned: final credential

	payload [payloadCapacity]byte
	sigB64  [encodedSignatureSize]byte

	token      []byte // view into tokenBuf; nil until first success
	expiration uint64 // Unix epoch seconds; 0 until first success
}

// New creates a Generator over the caller-owned signature and token
// buffers. key is the base64-encoded secret, borrowed for the life of
// the Generator (or until Rekey). The system clock is used unless
// replaced with WithClock.
func New(key []byte, canon Canonicalizer, format Formatter, sigBuf, tokenBuf []byte) *Generator {
	return &Generator{
		key:      key,
		canon:    canon,
		format:   format,
		clock:    SystemClock{},
		sigBuf:   sigBuf,
		tokenBuf: tokenBuf,
	}
}

// WithClock replaces the generator's time source and returns the
// generator. Tests use a fixed clock to pin expiration arithmetic.
func (g *Generator) WithClock(c Clock) *Generator {
	g.clock = c
	return g
}

// Rekey replaces the borrowed secret key, for callers that rotate
// device keys without rebuilding the generator. The current token and
// expiration are unaffected until the next Generate.
func (g *Generator) Rekey(key []byte) {
	g.key = key
}

// Generate computes a fresh token valid for lifetimeMinutes from now.
//
// On success the new token is available via Get and its absolute
// expiration via Expiration. On failure the returned error wraps the
// sentinel of the failing stage (and ErrBufferTooSmall when scratch
// space ran out), and all previously issued state is preserved.
func (g *Generator) Generate(lifetimeMinutes uint32) error {
	if lifetimeMinutes == 0 {
		return ErrLifetime
	}
	expiration := g.clock.Now() + uint64(lifetimeMinutes)*60

	// Stage 1: canonical string-to-sign.
	payload, err := g.canon.SignaturePayload(g.payload[:], expiration)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCanonicalize, err)
	}

	// Stage 2: decode the base64 key into the signature buffer. The
	// buffer must also fit the MAC that overwrites it in stage 3.
	need := base64.StdEncoding.DecodedLen(len(g.key))
	if need < SignatureSize {
		need = SignatureSize
	}
	if need > len(g.sigBuf) {
		return fmt.Errorf("%w: %w: need %d bytes, have %d",
			ErrKeyDecode, ErrBufferTooSmall, need, len(g.sigBuf))
	}
	keyLen, err := base64.StdEncoding.Decode(g.sigBuf, g.key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyDecode, err)
	}

	// Stage 3: HMAC-SHA256 over the payload. The MAC reuses the region
	// the decoded key occupied; safe because hmac.New copied the key.
	mac := hmac.New(sha256.New, g.sigBuf[:keyLen])
	mac.Write(payload)
	signature := mac.Sum(g.sigBuf[:0])

	// Stage 4: base64 encode the signature. The internal scratch array
	// is sized exactly for a SignatureSize MAC, so this stage has no
	// failure mode and no sentinel.
	base64.StdEncoding.Encode(g.sigB64[:], signature[:SignatureSize])

	// Stage 5: assemble the credential into the token buffer.
	token, err := g.format.FormatToken(g.tokenBuf, g.sigB64[:], expiration)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenFormat, err)
	}

	// Commit only now, so failed calls never advance reported state.
	g.token = token
	g.expiration = expiration
	return nil
}

// IsExpired reports whether the current token has reached its
// expiration second. The boundary is inclusive: a token is expired
// exactly at its expiration epoch. A generator that has never
// successfully generated reports true.
func (g *Generator) IsExpired() bool {
	return g.clock.Now() >= g.expiration
}

// Get returns the current token view: a read-only window into the
// token buffer, valid until the next successful Generate. It is nil
// before the first success and may be stale after expiry; callers
// check IsExpired separately.
func (g *Generator) Get() []byte {
	return g.token
}

// Expiration returns the absolute Unix expiration epoch of the current
// token, or 0 if no token has been generated.
func (g *Generator) Expiration() uint64 {
	return g.expiration
}
