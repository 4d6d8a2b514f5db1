package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yndnr/sasmint-go/internal/core/domain"
)

// Key prefixes. One keyspace, one record type per prefix.
const (
	devicePrefix = "dev:"
	apiKeyPrefix = "akey:"
)

// storedDevice is the persisted form of a device. The domain struct
// excludes key material from JSON on purpose; persistence needs it.
type storedDevice struct {
	ID           string `json:"id"`
	Hub          string `json:"hub"`
	PrimaryKey   string `json:"primary_key"`
	SecondaryKey string `json:"secondary_key"`
	Disabled     bool   `json:"disabled"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// storedAPIKey is the persisted form of an API key, including the
// secret hash the domain struct keeps out of JSON.
type storedAPIKey struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SecretHash string `json:"secret_hash"`
	Role       string `json:"role"`
	RateLimit  int    `json:"rate_limit"`
	Disabled   bool   `json:"disabled"`
	CreatedAt  int64  `json:"created_at"`
	LastUsed   int64  `json:"last_used,omitempty"`
}

// DeviceRepo persists devices in a KVEngine as JSON records under the
// "dev:" prefix.
type DeviceRepo struct {
	kv KVEngine
}

// NewDeviceRepo creates a device repository on top of a KV engine.
func NewDeviceRepo(kv KVEngine) *DeviceRepo {
	return &DeviceRepo{kv: kv}
}

func deviceKey(id string) []byte {
	return []byte(devicePrefix + id)
}

// GetDevice retrieves a device by ID.
func (r *DeviceRepo) GetDevice(ctx context.Context, id string) (*domain.Device, error) {
	raw, err := r.kv.Get(ctx, deviceKey(id))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrDeviceNotFound.WithDetails(id)
		}
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return decodeDevice(raw)
}

// PutDevice stores or replaces a device.
func (r *DeviceRepo) PutDevice(ctx context.Context, dev *domain.Device) error {
	raw, err := json.Marshal(&storedDevice{
		ID:           dev.ID,
		Hub:          dev.Hub,
		PrimaryKey:   dev.PrimaryKey,
		SecondaryKey: dev.SecondaryKey,
		Disabled:     dev.Disabled,
		CreatedAt:    dev.CreatedAt,
		UpdatedAt:    dev.UpdatedAt,
	})
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	if err := r.kv.Set(ctx, deviceKey(dev.ID), raw); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// DeleteDevice removes a device.
func (r *DeviceRepo) DeleteDevice(ctx context.Context, id string) error {
	// Badger deletes are blind; check existence first so callers get
	// a not-found error for unknown IDs.
	if _, err := r.kv.Get(ctx, deviceKey(id)); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return domain.ErrDeviceNotFound.WithDetails(id)
		}
		return domain.ErrStorageError.WithCause(err)
	}
	if err := r.kv.Delete(ctx, deviceKey(id)); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// ListDevices returns all registered devices.
func (r *DeviceRepo) ListDevices(ctx context.Context) ([]*domain.Device, error) {
	var devices []*domain.Device
	var decodeErr error

	err := r.kv.Scan(ctx, []byte(devicePrefix), func(_, value []byte) bool {
		dev, err := decodeDevice(value)
		if err != nil {
			decodeErr = err
			return false
		}
		devices = append(devices, dev)
		return true
	})
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return devices, nil
}

// CountDevices returns the number of registered devices.
func (r *DeviceRepo) CountDevices(ctx context.Context) (int, error) {
	count := 0
	err := r.kv.Scan(ctx, []byte(devicePrefix), func(_, _ []byte) bool {
		count++
		return true
	})
	if err != nil {
		return 0, domain.ErrStorageError.WithCause(err)
	}
	return count, nil
}

func decodeDevice(raw []byte) (*domain.Device, error) {
	var rec storedDevice
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, domain.ErrStorageError.WithCause(fmt.Errorf("decode device: %w", err))
	}
	return &domain.Device{
		ID:           rec.ID,
		Hub:          rec.Hub,
		PrimaryKey:   rec.PrimaryKey,
		SecondaryKey: rec.SecondaryKey,
		Disabled:     rec.Disabled,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

// APIKeyRepo persists management API keys in a KVEngine as JSON
// records under the "akey:" prefix.
type APIKeyRepo struct {
	kv KVEngine
}

// NewAPIKeyRepo creates an API key repository on top of a KV engine.
func NewAPIKeyRepo(kv KVEngine) *APIKeyRepo {
	return &APIKeyRepo{kv: kv}
}

func apiKeyKey(id string) []byte {
	return []byte(apiKeyPrefix + id)
}

// GetAPIKey retrieves a key by ID.
func (r *APIKeyRepo) GetAPIKey(ctx context.Context, id string) (*domain.APIKey, error) {
	raw, err := r.kv.Get(ctx, apiKeyKey(id))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, domain.ErrAPIKeyNotFound.WithDetails(id)
		}
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return decodeAPIKey(raw)
}

// PutAPIKey stores or replaces a key.
func (r *APIKeyRepo) PutAPIKey(ctx context.Context, key *domain.APIKey) error {
	raw, err := json.Marshal(&storedAPIKey{
		ID:         key.ID,
		Name:       key.Name,
		SecretHash: key.SecretHash,
		Role:       string(key.Role),
		RateLimit:  key.RateLimit,
		Disabled:   key.Disabled,
		CreatedAt:  key.CreatedAt,
		LastUsed:   key.LastUsed,
	})
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	if err := r.kv.Set(ctx, apiKeyKey(key.ID), raw); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// DeleteAPIKey removes a key.
func (r *APIKeyRepo) DeleteAPIKey(ctx context.Context, id string) error {
	if _, err := r.kv.Get(ctx, apiKeyKey(id)); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return domain.ErrAPIKeyNotFound.WithDetails(id)
		}
		return domain.ErrStorageError.WithCause(err)
	}
	if err := r.kv.Delete(ctx, apiKeyKey(id)); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// ListAPIKeys returns all keys.
func (r *APIKeyRepo) ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error) {
	var keys []*domain.APIKey
	var decodeErr error

	err := r.kv.Scan(ctx, []byte(apiKeyPrefix), func(_, value []byte) bool {
		key, err := decodeAPIKey(value)
		if err != nil {
			decodeErr = err
			return false
		}
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return keys, nil
}

func decodeAPIKey(raw []byte) (*domain.APIKey, error) {
	var rec storedAPIKey
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, domain.ErrStorageError.WithCause(fmt.Errorf("decode api key: %w", err))
	}
	return &domain.APIKey{
		ID:         rec.ID,
		Name:       rec.Name,
		SecretHash: rec.SecretHash,
		Role:       domain.Role(rec.Role),
		RateLimit:  rec.RateLimit,
		Disabled:   rec.Disabled,
		CreatedAt:  rec.CreatedAt,
		LastUsed:   rec.LastUsed,
	}, nil
}
