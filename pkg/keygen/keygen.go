// Package keygen produces random key material for SasMint.
//
// Device keys are standard base64 (the SAS key format brokers expect);
// API key secrets are base64 RawURL for safe transport in headers.
// Both come from crypto/rand.
package keygen

import (
	"crypto/rand"
	"encoding/base64"
)

// DeviceKeyBytes is the raw length of a device key (256-bit).
const DeviceKeyBytes = 32

// SecretBytes is the raw length of an API key secret.
const SecretBytes = 32

// NewDeviceKey generates a device key: 32 random bytes, standard
// base64 encoded (padded, like broker-issued SAS keys).
func NewDeviceKey() (string, error) {
	raw, err := NewBytes(DeviceKeyBytes)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// NewSecret generates an API key secret: 32 random bytes, base64
// RawURL encoded for safe use in HTTP headers.
func NewSecret() (string, error) {
	raw, err := NewBytes(SecretBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// NewBytes generates length random bytes.
func NewBytes(length int) ([]byte, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	return raw, nil
}
