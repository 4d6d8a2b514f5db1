package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yndnr/sasmint-go/internal/core/domain"
	"github.com/yndnr/sasmint-go/internal/telemetry/logger"
	"github.com/yndnr/sasmint-go/internal/telemetry/metric"
	"github.com/yndnr/sasmint-go/pkg/sas"
	"github.com/yndnr/sasmint-go/pkg/sas/iothub"
)

// DeviceReader is the storage interface issuance needs.
type DeviceReader interface {
	// GetDevice retrieves a device by ID.
	// Returns domain.ErrDeviceNotFound if it is not registered.
	GetDevice(ctx context.Context, id string) (*domain.Device, error)
}

// IssuerConfig holds configuration for IssuerService.
type IssuerConfig struct {
	// MinLifetimeMinutes / MaxLifetimeMinutes bound requested token
	// lifetimes.
	MinLifetimeMinutes uint32
	MaxLifetimeMinutes uint32

	// SignatureBufferSize is the scratch size for decoded keys and
	// MACs; must hold max(decoded key, 32) bytes.
	SignatureBufferSize int

	// TokenBufferSize is the scratch size for assembled credentials.
	TokenBufferSize int
}

// DefaultIssuerConfig returns the default issuance configuration.
func DefaultIssuerConfig() *IssuerConfig {
	return &IssuerConfig{
		MinLifetimeMinutes:  1,
		MaxLifetimeMinutes:  24 * 60,
		SignatureBufferSize: 64,
		TokenBufferSize:     512,
	}
}

// IssuerService issues SAS credentials for registered devices. It owns
// a pool of scratch buffer pairs so concurrent issuance calls never
// share a generator (pkg/sas generators are single-threaded by
// contract).
type IssuerService struct {
	repo    DeviceReader
	cfg     IssuerConfig
	clock   sas.Clock
	metrics *metric.Registry
	log     logger.Logger
	buffers sync.Pool
}

// NewIssuerService creates an IssuerService. A nil cfg selects
// DefaultIssuerConfig.
func NewIssuerService(repo DeviceReader, cfg *IssuerConfig, metrics *metric.Registry, log logger.Logger) *IssuerService {
	if cfg == nil {
		cfg = DefaultIssuerConfig()
	}
	if metrics == nil {
		metrics = metric.NewNop()
	}
	if log == nil {
		log = logger.Default()
	}

	s := &IssuerService{
		repo:    repo,
		cfg:     *cfg,
		clock:   sas.SystemClock{},
		metrics: metrics,
		log:     log,
	}
	s.buffers.New = func() any {
		return &scratch{
			sig:   make([]byte, s.cfg.SignatureBufferSize),
			token: make([]byte, s.cfg.TokenBufferSize),
		}
	}
	return s
}

// WithClock replaces the issuance time source (tests pin it).
func (s *IssuerService) WithClock(c sas.Clock) *IssuerService {
	s.clock = c
	return s
}

type scratch struct {
	sig   []byte
	token []byte
}

// IssueRequest contains parameters for credential issuance.
type IssueRequest struct {
	// DeviceID is the registered device to issue for.
	DeviceID string

	// LifetimeMinutes is the requested validity; bounded by the
	// issuer's configured min/max.
	LifetimeMinutes uint32

	// KeySlot selects the signing key; empty means primary.
	KeySlot domain.KeySlot
}

// Issue generates a SAS credential for a registered device.
//
// The token is copied out of the generator's scratch buffers before
// they return to the pool; the device key never leaves this call.
func (s *IssuerService) Issue(ctx context.Context, req *IssueRequest) (*domain.IssuedCredential, error) {
	start := time.Now()
	cred, err := s.issue(ctx, req)
	s.metrics.IssueDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		code := domain.GetErrorCode(err)
		if code == "" {
			code = "SM-TOKN-5000"
		}
		s.metrics.TokensFailed.WithLabelValues(code).Inc()
		s.log.WithContext(ctx).Warn("credential issuance failed",
			"device_id", req.DeviceID,
			"code", code,
			"error", err.Error())
		return nil, err
	}

	s.metrics.TokensIssued.WithLabelValues(credHub(cred)).Inc()
	s.log.WithContext(ctx).Info("credential issued",
		"device_id", cred.DeviceID,
		"resource", cred.Resource,
		"key_slot", string(cred.KeySlot),
		"expires_at", cred.ExpiresAt)
	return cred, nil
}

func (s *IssuerService) issue(ctx context.Context, req *IssueRequest) (*domain.IssuedCredential, error) {
	if req.LifetimeMinutes < s.cfg.MinLifetimeMinutes || req.LifetimeMinutes > s.cfg.MaxLifetimeMinutes {
		return nil, domain.ErrLifetimeOutOfRange.WithDetails(
			"requested lifetime outside configured bounds")
	}

	slot := req.KeySlot
	if slot == "" {
		slot = domain.SlotPrimary
	}
	if !domain.IsValidKeySlot(string(slot)) {
		return nil, domain.ErrBadKeySlot.WithDetails(string(slot))
	}

	dev, err := s.repo.GetDevice(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}
	if dev.Disabled {
		return nil, domain.ErrDeviceDisabled.WithDetails(dev.ID)
	}

	key, err := dev.Key(slot)
	if err != nil {
		return nil, err
	}

	canon, err := iothub.New(iothub.Scope{Host: dev.Hub, DeviceID: dev.ID})
	if err != nil {
		return nil, domain.ErrGenerationFailed.WithCause(err)
	}

	buf := s.buffers.Get().(*scratch)
	defer s.buffers.Put(buf)

	gen := sas.New([]byte(key), canon, canon, buf.sig, buf.token).WithClock(s.clock)
	if err := gen.Generate(req.LifetimeMinutes); err != nil {
		if errors.Is(err, sas.ErrBufferTooSmall) {
			return nil, domain.ErrGenerationFailed.
				WithDetails("scratch buffers too small for this device").
				WithCause(err)
		}
		return nil, domain.ErrGenerationFailed.WithCause(err)
	}

	expiresAt := gen.Expiration()
	return &domain.IssuedCredential{
		DeviceID:  dev.ID,
		Resource:  canon.Resource(),
		Token:     string(gen.Get()), // copy; the view dies with the pool
		KeySlot:   slot,
		IssuedAt:  expiresAt - uint64(req.LifetimeMinutes)*60,
		ExpiresAt: expiresAt,
	}, nil
}

func credHub(cred *domain.IssuedCredential) string {
	for i := 0; i < len(cred.Resource); i++ {
		if cred.Resource[i] == '/' {
			return cred.Resource[:i]
		}
	}
	return cred.Resource
}
