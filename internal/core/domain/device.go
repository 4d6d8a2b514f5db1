package domain

import (
	"strings"
	"time"

	"github.com/yndnr/sasmint-go/pkg/keygen"
)

// Device ID constraints. IDs follow the broker's device registry rules:
// printable ASCII from a restricted set, case-sensitive.
const (
	MaxDeviceIDLength = 128
	MaxHubLength      = 253 // DNS name limit
)

// KeySlot selects one of the two device keys. Two slots allow key
// rotation without a fleet-wide credential outage.
type KeySlot string

const (
	// SlotPrimary is the default signing key slot.
	SlotPrimary KeySlot = "primary"

	// SlotSecondary is the standby slot used during rotation.
	SlotSecondary KeySlot = "secondary"
)

// IsValidKeySlot checks if a string names a valid key slot.
func IsValidKeySlot(s string) bool {
	switch KeySlot(s) {
	case SlotPrimary, SlotSecondary:
		return true
	}
	return false
}

// Device is a registered device and its signing material.
type Device struct {
	// ID is the device identifier, unique per registry.
	ID string `json:"id"`

	// Hub is the broker hostname the device connects to.
	Hub string `json:"hub"`

	// PrimaryKey is the standard-base64 primary signing key.
	// Never exposed over the API or logs.
	PrimaryKey string `json:"-"`

	// SecondaryKey is the standard-base64 secondary signing key.
	SecondaryKey string `json:"-"`

	// Disabled blocks credential issuance for this device.
	Disabled bool `json:"disabled"`

	// CreatedAt is the registration timestamp (Unix ms).
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the last modification timestamp (Unix ms).
	UpdatedAt int64 `json:"updated_at"`
}

// NewDevice registers a device with freshly generated keys.
func NewDevice(id, hub string) (*Device, error) {
	d := &Device{ID: id, Hub: hub}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	primary, err := keygen.NewDeviceKey()
	if err != nil {
		return nil, ErrInternalServer.WithCause(err)
	}
	secondary, err := keygen.NewDeviceKey()
	if err != nil {
		return nil, ErrInternalServer.WithCause(err)
	}

	now := time.Now().UnixMilli()
	d.PrimaryKey = primary
	d.SecondaryKey = secondary
	d.CreatedAt = now
	d.UpdatedAt = now
	return d, nil
}

// Validate checks the device's identity fields.
func (d *Device) Validate() error {
	if d.ID == "" {
		return ErrDeviceValidation.WithDetails("device id is required")
	}
	if len(d.ID) > MaxDeviceIDLength {
		return ErrDeviceValidation.WithDetails("device id too long")
	}
	if !isValidDeviceID(d.ID) {
		return ErrDeviceValidation.WithDetails("device id contains invalid characters")
	}
	if d.Hub == "" {
		return ErrDeviceValidation.WithDetails("hub is required")
	}
	if len(d.Hub) > MaxHubLength || strings.ContainsAny(d.Hub, " \t\r\n&/") {
		return ErrDeviceValidation.WithDetails("hub is not a valid hostname")
	}
	return nil
}

// isValidDeviceID checks the registry device-ID charset:
// alphanumerics plus - . _ :
func isValidDeviceID(id string) bool {
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == '-' || c == '.' || c == '_' || c == ':':
		default:
			return false
		}
	}
	return true
}

// Key returns the base64 key in the given slot.
func (d *Device) Key(slot KeySlot) (string, error) {
	switch slot {
	case SlotPrimary:
		return d.PrimaryKey, nil
	case SlotSecondary:
		return d.SecondaryKey, nil
	}
	return "", ErrBadKeySlot.WithDetails(string(slot))
}

// RotateKey replaces the key in the given slot with fresh material.
func (d *Device) RotateKey(slot KeySlot) error {
	key, err := keygen.NewDeviceKey()
	if err != nil {
		return ErrInternalServer.WithCause(err)
	}
	switch slot {
	case SlotPrimary:
		d.PrimaryKey = key
	case SlotSecondary:
		d.SecondaryKey = key
	default:
		return ErrBadKeySlot.WithDetails(string(slot))
	}
	d.Touch()
	return nil
}

// Touch updates the modification timestamp.
func (d *Device) Touch() {
	d.UpdatedAt = time.Now().UnixMilli()
}

// MaskKey masks key material for safe logging: first four characters
// of the base64 value, nothing else.
func MaskKey(key string) string {
	if len(key) < 8 {
		return "****"
	}
	return key[:4] + "..."
}
