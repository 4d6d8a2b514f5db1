package service

import (
	"context"

	"github.com/yndnr/sasmint-go/internal/core/domain"
	"github.com/yndnr/sasmint-go/internal/telemetry/logger"
	"github.com/yndnr/sasmint-go/internal/telemetry/metric"
)

// DeviceRepository defines the storage interface for registry
// operations.
type DeviceRepository interface {
	DeviceReader

	// PutDevice stores or replaces a device.
	PutDevice(ctx context.Context, dev *domain.Device) error

	// DeleteDevice removes a device.
	// Returns domain.ErrDeviceNotFound if it is not registered.
	DeleteDevice(ctx context.Context, id string) error

	// ListDevices returns all registered devices.
	ListDevices(ctx context.Context) ([]*domain.Device, error)

	// CountDevices returns the number of registered devices.
	CountDevices(ctx context.Context) (int, error)
}

// RegistryConfig holds configuration for RegistryService.
type RegistryConfig struct {
	// MaxDevices caps the registry size; 0 means unlimited.
	MaxDevices int
}

// RegistryService manages the device registry.
type RegistryService struct {
	repo    DeviceRepository
	cfg     RegistryConfig
	metrics *metric.Registry
	log     logger.Logger
}

// NewRegistryService creates a RegistryService.
func NewRegistryService(repo DeviceRepository, cfg *RegistryConfig, metrics *metric.Registry, log logger.Logger) *RegistryService {
	if cfg == nil {
		cfg = &RegistryConfig{}
	}
	if metrics == nil {
		metrics = metric.NewNop()
	}
	if log == nil {
		log = logger.Default()
	}
	return &RegistryService{repo: repo, cfg: *cfg, metrics: metrics, log: log}
}

// Register creates a device with fresh keys and stores it.
func (s *RegistryService) Register(ctx context.Context, id, hub string) (*domain.Device, error) {
	if _, err := s.repo.GetDevice(ctx, id); err == nil {
		return nil, domain.ErrDeviceConflict.WithDetails(id)
	}

	if s.cfg.MaxDevices > 0 {
		count, err := s.repo.CountDevices(ctx)
		if err != nil {
			return nil, err
		}
		if count >= s.cfg.MaxDevices {
			return nil, domain.ErrRegistryQuota.WithDetails("registry is full")
		}
	}

	dev, err := domain.NewDevice(id, hub)
	if err != nil {
		return nil, err
	}
	if err := s.repo.PutDevice(ctx, dev); err != nil {
		return nil, err
	}

	s.syncGauge(ctx)
	s.log.WithContext(ctx).Info("device registered", "device_id", dev.ID, "hub", dev.Hub)
	return dev, nil
}

// Get retrieves a device by ID.
func (s *RegistryService) Get(ctx context.Context, id string) (*domain.Device, error) {
	return s.repo.GetDevice(ctx, id)
}

// List returns all registered devices.
func (s *RegistryService) List(ctx context.Context) ([]*domain.Device, error) {
	return s.repo.ListDevices(ctx)
}

// Delete removes a device from the registry.
func (s *RegistryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteDevice(ctx, id); err != nil {
		return err
	}
	s.syncGauge(ctx)
	s.log.WithContext(ctx).Info("device deleted", "device_id", id)
	return nil
}

// SetDisabled flips the issuance block on a device.
func (s *RegistryService) SetDisabled(ctx context.Context, id string, disabled bool) (*domain.Device, error) {
	dev, err := s.repo.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	dev.Disabled = disabled
	dev.Touch()
	if err := s.repo.PutDevice(ctx, dev); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("device state changed", "device_id", id, "disabled", disabled)
	return dev, nil
}

// Rotate replaces the key in the given slot with fresh material.
// Tokens signed with the previous key keep working until they expire;
// callers stage rotation through the secondary slot to avoid gaps.
func (s *RegistryService) Rotate(ctx context.Context, id string, slot domain.KeySlot) (*domain.Device, error) {
	dev, err := s.repo.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := dev.RotateKey(slot); err != nil {
		return nil, err
	}
	if err := s.repo.PutDevice(ctx, dev); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("device key rotated", "device_id", id, "key_slot", string(slot))
	return dev, nil
}

func (s *RegistryService) syncGauge(ctx context.Context) {
	if count, err := s.repo.CountDevices(ctx); err == nil {
		s.metrics.DevicesRegistered.Set(float64(count))
	}
}
