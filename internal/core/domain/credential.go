package domain

import "strings"

// IssuedCredential is the outcome of a successful issuance: the signed
// SAS token and its validity window. The Token string is a copy taken
// at the service boundary; the generator's scratch buffers never leave
// the issuance call.
type IssuedCredential struct {
	// DeviceID is the device the credential was issued for.
	DeviceID string `json:"device_id"`

	// Resource is the canonical resource URI the token authorizes.
	Resource string `json:"resource"`

	// Token is the full SharedAccessSignature credential.
	Token string `json:"token"`

	// KeySlot names the key the token was signed with.
	KeySlot KeySlot `json:"key_slot"`

	// IssuedAt is the issuance epoch (Unix seconds).
	IssuedAt uint64 `json:"issued_at"`

	// ExpiresAt is the absolute expiration epoch (Unix seconds).
	ExpiresAt uint64 `json:"expires_at"`
}

// MaskToken masks the signature portion of a SAS token for audit logs.
// Everything after "sig=" up to the next '&' is replaced.
func MaskToken(token string) string {
	i := strings.Index(token, "sig=")
	if i < 0 {
		return "***REDACTED***"
	}
	rest := token[i+len("sig="):]
	j := strings.IndexByte(rest, '&')
	if j < 0 {
		return token[:i] + "sig=***"
	}
	return token[:i] + "sig=***" + rest[j:]
}
