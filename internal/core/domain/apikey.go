package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/argon2"

	"github.com/yndnr/sasmint-go/pkg/keygen"
)

// Management API key constants.
const (
	// APIKeyIDPrefix is the prefix for API key IDs (public, hyphen).
	APIKeyIDPrefix = "smak-"

	// APIKeySecretPrefix is the prefix for API key secrets (sensitive,
	// underscore). Redaction keys off this prefix.
	APIKeySecretPrefix = "smas_"
)

// Argon2id parameters for API key secret hashing.
const (
	argon2Memory      uint32 = 16384 // KiB
	argon2Time        uint32 = 2
	argon2Parallelism uint8  = 2
	argon2KeyLen      uint32 = 32
	argon2SaltLen            = 16
)

// Role defines the permission level of a management API key.
type Role string

const (
	// RoleMetrics has read-only access to monitoring metrics.
	RoleMetrics Role = "metrics"

	// RoleIssuer may issue device credentials and read the registry.
	RoleIssuer Role = "issuer"

	// RoleAdmin has full access including registry writes and key
	// management.
	RoleAdmin Role = "admin"
)

// IsValidRole checks if a string names a valid role.
func IsValidRole(r string) bool {
	switch Role(r) {
	case RoleMetrics, RoleIssuer, RoleAdmin:
		return true
	}
	return false
}

// Permission represents an action a management API key may perform.
type Permission string

const (
	PermTokenIssue    Permission = "token.issue"
	PermDeviceRead    Permission = "device.read"
	PermDeviceWrite   Permission = "device.write"
	PermDeviceRotate  Permission = "device.rotate"
	PermAPIKeyManage  Permission = "apikey.manage"
	PermSystemRead    Permission = "system.read"
	PermMetricsRead   Permission = "metrics.read"
)

// rolePermissions grants permissions per role; higher roles include
// the lower roles' grants.
var rolePermissions = map[Role][]Permission{
	RoleMetrics: {
		PermMetricsRead,
	},
	RoleIssuer: {
		PermTokenIssue,
		PermDeviceRead,
		PermSystemRead,
		PermMetricsRead,
	},
	RoleAdmin: {
		PermTokenIssue,
		PermDeviceRead,
		PermDeviceWrite,
		PermDeviceRotate,
		PermAPIKeyManage,
		PermSystemRead,
		PermMetricsRead,
	},
}

// HasPermission checks if a role grants a permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// APIKey is a management API access key. Only the Argon2id hash of the
// secret is stored; the plaintext is returned once at creation.
type APIKey struct {
	// ID is the public key identifier: smak-{ulid_lowercase}.
	ID string `json:"id"`

	// Name is the human-readable key name.
	Name string `json:"name"`

	// SecretHash is the Argon2id hash of the secret (never exposed).
	SecretHash string `json:"-"`

	// Role defines the permission level.
	Role Role `json:"role"`

	// RateLimit is the per-key request rate (requests/second).
	RateLimit int `json:"rate_limit"`

	// Disabled blocks use of the key.
	Disabled bool `json:"disabled"`

	// CreatedAt is the creation timestamp (Unix ms).
	CreatedAt int64 `json:"created_at"`

	// LastUsed is the last usage timestamp (Unix ms).
	LastUsed int64 `json:"last_used,omitempty"`
}

// DefaultAPIKeyRateLimit is the per-key request rate applied when none
// is configured.
const DefaultAPIKeyRateLimit = 100

// NewAPIKey creates an API key with a generated ID and secret.
// The plaintext secret is returned exactly once.
func NewAPIKey(name string, role Role) (*APIKey, string, error) {
	if !IsValidRole(string(role)) {
		return nil, "", ErrBadRequest.WithDetails("invalid role: " + string(role))
	}

	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}

	secret, err := keygen.NewSecret()
	if err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}
	plaintext := APIKeySecretPrefix + secret

	hash, err := HashSecret(plaintext)
	if err != nil {
		return nil, "", ErrInternalServer.WithCause(err)
	}

	return &APIKey{
		ID:         APIKeyIDPrefix + strings.ToLower(id.String()),
		Name:       name,
		SecretHash: hash,
		Role:       role,
		RateLimit:  DefaultAPIKeyRateLimit,
		CreatedAt:  time.Now().UnixMilli(),
	}, plaintext, nil
}

// HashSecret computes the Argon2id hash of a secret in the format
// $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>.
func HashSecret(secret string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(secret), salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLen)
	return "$argon2id$v=19$m=16384,t=2,p=2$" +
		base64.RawStdEncoding.EncodeToString(salt) + "$" +
		base64.RawStdEncoding.EncodeToString(hash), nil
}

// VerifySecret checks a plaintext secret against a stored hash using a
// constant-time comparison.
func VerifySecret(secret, encoded string) bool {
	parts := strings.Split(encoded, "$")
	// "", "argon2id", "v=19", params, salt, hash
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(secret), salt, argon2Time, argon2Memory, argon2Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// IsValidAPIKeyID checks the smak-{ulid} ID format.
func IsValidAPIKeyID(id string) bool {
	if !strings.HasPrefix(id, APIKeyIDPrefix) {
		return false
	}
	// smak- (5) + ULID (26)
	if len(id) != 31 {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(id[len(APIKeyIDPrefix):]))
	return err == nil
}

// MaskSecret masks an API key secret for safe logging.
func MaskSecret(secret string) string {
	if len(secret) < 10 || !strings.HasPrefix(secret, APIKeySecretPrefix) {
		return "***REDACTED***"
	}
	body := secret[len(APIKeySecretPrefix):]
	return APIKeySecretPrefix + body[:3] + "..." + body[len(body)-3:]
}

// Touch updates the LastUsed timestamp.
func (k *APIKey) Touch() {
	k.LastUsed = time.Now().UnixMilli()
}

// IsActive reports whether the key may be used.
func (k *APIKey) IsActive() bool {
	return !k.Disabled
}
