package service

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/yndnr/sasmint-go/internal/core/domain"
	"github.com/yndnr/sasmint-go/internal/telemetry/logger"
	"github.com/yndnr/sasmint-go/internal/telemetry/metric"
	"github.com/yndnr/sasmint-go/pkg/cmap"
)

// APIKeyRepository defines the storage interface for management API
// keys.
type APIKeyRepository interface {
	// GetAPIKey retrieves a key by ID.
	// Returns domain.ErrAPIKeyNotFound if it does not exist.
	GetAPIKey(ctx context.Context, id string) (*domain.APIKey, error)

	// PutAPIKey stores or replaces a key.
	PutAPIKey(ctx context.Context, key *domain.APIKey) error

	// DeleteAPIKey removes a key.
	DeleteAPIKey(ctx context.Context, id string) error

	// ListAPIKeys returns all keys.
	ListAPIKeys(ctx context.Context) ([]*domain.APIKey, error)
}

// AuthService validates management API keys and enforces per-key rate
// limits.
type AuthService struct {
	repo     APIKeyRepository
	limiters *cmap.Map[string, *rate.Limiter]
	metrics  *metric.Registry
	log      logger.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(repo APIKeyRepository, metrics *metric.Registry, log logger.Logger) *AuthService {
	if metrics == nil {
		metrics = metric.NewNop()
	}
	if log == nil {
		log = logger.Default()
	}
	return &AuthService{
		repo:     repo,
		limiters: cmap.New[string, *rate.Limiter](),
		metrics:  metrics,
		log:      log,
	}
}

// Validate checks an API key ID/secret pair and returns the key on
// success. Lookup failures and bad secrets both map to
// domain.ErrAPIKeyInvalid so callers cannot probe for key existence.
func (s *AuthService) Validate(ctx context.Context, keyID, secret string) (*domain.APIKey, error) {
	if keyID == "" || secret == "" {
		return nil, domain.ErrAPIKeyMissing
	}
	if !domain.IsValidAPIKeyID(keyID) {
		return nil, domain.ErrAPIKeyInvalid
	}

	key, err := s.repo.GetAPIKey(ctx, keyID)
	if err != nil {
		return nil, domain.ErrAPIKeyInvalid
	}
	if !key.IsActive() {
		return nil, domain.ErrAPIKeyDisabled
	}
	if !domain.VerifySecret(secret, key.SecretHash) {
		s.metrics.AuthFailures.Inc()
		return nil, domain.ErrAPIKeyInvalid
	}

	// Best effort; a failed touch must not fail authentication.
	key.Touch()
	if err := s.repo.PutAPIKey(ctx, key); err != nil {
		s.log.WithContext(ctx).Warn("api key touch failed", "api_key_id", keyID)
	}

	return key, nil
}

// CheckPermission verifies the key's role grants perm.
func (s *AuthService) CheckPermission(key *domain.APIKey, perm domain.Permission) error {
	if key == nil {
		return domain.ErrAPIKeyMissing
	}
	if !domain.HasPermission(key.Role, perm) {
		return domain.ErrPermissionDenied.WithDetails(string(perm))
	}
	return nil
}

// CheckRateLimit enforces the key's configured request rate.
func (s *AuthService) CheckRateLimit(key *domain.APIKey) error {
	limit := key.RateLimit
	if limit <= 0 {
		limit = domain.DefaultAPIKeyRateLimit
	}

	limiter, _ := s.limiters.GetOrSet(key.ID, rate.NewLimiter(rate.Limit(limit), limit))
	if !limiter.Allow() {
		s.metrics.RateLimitedReqs.Inc()
		return domain.ErrRateLimited.WithDetails(key.ID)
	}
	return nil
}

// CreateKey creates a management API key; the plaintext secret is
// returned exactly once.
func (s *AuthService) CreateKey(ctx context.Context, name string, role domain.Role) (*domain.APIKey, string, error) {
	key, secret, err := domain.NewAPIKey(name, role)
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.PutAPIKey(ctx, key); err != nil {
		return nil, "", err
	}
	s.syncGauge(ctx)
	s.log.WithContext(ctx).Info("api key created",
		"api_key_id", key.ID, "name", name, "role", string(role))
	return key, secret, nil
}

// PinSecret replaces a key's secret with a caller-supplied one.
// Deployments that provision the bootstrap key through config use
// this so the secret never appears in logs or stdout.
func (s *AuthService) PinSecret(ctx context.Context, id, secret string) error {
	key, err := s.repo.GetAPIKey(ctx, id)
	if err != nil {
		return err
	}
	hash, err := domain.HashSecret(secret)
	if err != nil {
		return err
	}
	key.SecretHash = hash
	return s.repo.PutAPIKey(ctx, key)
}

// SetDisabled flips the disabled flag of a key.
func (s *AuthService) SetDisabled(ctx context.Context, id string, disabled bool) (*domain.APIKey, error) {
	key, err := s.repo.GetAPIKey(ctx, id)
	if err != nil {
		return nil, err
	}
	key.Disabled = disabled
	if err := s.repo.PutAPIKey(ctx, key); err != nil {
		return nil, err
	}
	if disabled {
		s.limiters.Delete(id)
	}
	s.syncGauge(ctx)
	return key, nil
}

// ListKeys returns all management API keys.
func (s *AuthService) ListKeys(ctx context.Context) ([]*domain.APIKey, error) {
	return s.repo.ListAPIKeys(ctx)
}

func (s *AuthService) syncGauge(ctx context.Context) {
	keys, err := s.repo.ListAPIKeys(ctx)
	if err != nil {
		return
	}
	active := 0
	for _, k := range keys {
		if k.IsActive() {
			active++
		}
	}
	s.metrics.APIKeysActive.Set(float64(active))
}
