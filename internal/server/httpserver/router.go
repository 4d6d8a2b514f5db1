package httpserver

import (
	"net/http"

	"github.com/yndnr/sasmint-go/internal/core/domain"
	"github.com/yndnr/sasmint-go/internal/core/service"
	"github.com/yndnr/sasmint-go/internal/server/httpserver/handler"
	"github.com/yndnr/sasmint-go/internal/storage"
	"github.com/yndnr/sasmint-go/internal/telemetry/logger"
	"github.com/yndnr/sasmint-go/internal/telemetry/metric"
)

// RouterConfig holds everything the router needs.
type RouterConfig struct {
	Issuer   *service.IssuerService
	Registry *service.RegistryService
	Auth     *service.AuthService

	// Store backs the system endpoints (status summary, GC); may be
	// nil.
	Store storage.KVEngine

	Logger  logger.Logger
	Metrics *metric.Registry

	// MetricsHandler serves GET /metrics (Prometheus exposition).
	// Nil disables the endpoint.
	MetricsHandler http.Handler

	// MetricsAuthRequired guards /metrics behind metrics.read.
	MetricsAuthRequired bool

	// EnableAudit logs every request with its outcome.
	EnableAudit bool
}

// NewRouter builds the management API mux. Every route carries its own
// middleware chain; authenticated routes each name the permission they
// need.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metric.NewNop()
	}

	h := handler.New(cfg.Issuer, cfg.Registry, cfg.Auth, cfg.Store, cfg.Logger)
	mux := http.NewServeMux()

	// base wraps a route with the always-on chain.
	base := func(route string, hf http.HandlerFunc) http.Handler {
		middlewares := []Middleware{
			RequestID(),
			Recover(cfg.Logger),
			Observe(cfg.Metrics, route),
		}
		if cfg.EnableAudit {
			middlewares = append(middlewares, Audit(cfg.Logger))
		}
		return Chain(hf, middlewares...)
	}

	// protect additionally authenticates and checks a permission.
	protect := func(route string, hf http.HandlerFunc, perm domain.Permission) http.Handler {
		middlewares := []Middleware{
			RequestID(),
			Recover(cfg.Logger),
			Observe(cfg.Metrics, route),
		}
		if cfg.EnableAudit {
			middlewares = append(middlewares, Audit(cfg.Logger))
		}
		middlewares = append(middlewares,
			Auth(cfg.Auth),
			RequirePermission(cfg.Auth, perm),
		)
		return Chain(hf, middlewares...)
	}

	// Health endpoints, unauthenticated.
	mux.Handle("GET /health", base("/health", h.HandleHealth))
	mux.Handle("GET /ready", base("/ready", h.HandleReady))

	// Metrics endpoint.
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", Chain(cfg.MetricsHandler,
			RequestID(),
			Recover(cfg.Logger),
			MetricsAuth(cfg.Auth, cfg.MetricsAuthRequired),
		))
	}

	// Credential issuance.
	mux.Handle("POST /v1/devices/{id}/token",
		protect("/v1/devices/{id}/token", h.HandleIssueToken, domain.PermTokenIssue))

	// Device registry.
	mux.Handle("POST /v1/devices",
		protect("/v1/devices", h.HandleRegisterDevice, domain.PermDeviceWrite))
	mux.Handle("GET /v1/devices",
		protect("/v1/devices", h.HandleListDevices, domain.PermDeviceRead))
	mux.Handle("GET /v1/devices/{id}",
		protect("/v1/devices/{id}", h.HandleGetDevice, domain.PermDeviceRead))
	mux.Handle("DELETE /v1/devices/{id}",
		protect("/v1/devices/{id}", h.HandleDeleteDevice, domain.PermDeviceWrite))
	mux.Handle("POST /v1/devices/{id}/status",
		protect("/v1/devices/{id}/status", h.HandleUpdateDeviceStatus, domain.PermDeviceWrite))
	mux.Handle("POST /v1/devices/{id}/rotate",
		protect("/v1/devices/{id}/rotate", h.HandleRotateDeviceKey, domain.PermDeviceRotate))

	// API key administration.
	mux.Handle("POST /admin/v1/keys",
		protect("/admin/v1/keys", h.HandleCreateAPIKey, domain.PermAPIKeyManage))
	mux.Handle("GET /admin/v1/keys",
		protect("/admin/v1/keys", h.HandleListAPIKeys, domain.PermAPIKeyManage))
	mux.Handle("POST /admin/v1/keys/{key_id}/status",
		protect("/admin/v1/keys/{key_id}/status", h.HandleUpdateAPIKeyStatus, domain.PermAPIKeyManage))

	// System.
	mux.Handle("GET /admin/v1/status/summary",
		protect("/admin/v1/status/summary", h.HandleStatusSummary, domain.PermSystemRead))
	mux.Handle("POST /admin/v1/gc/trigger",
		protect("/admin/v1/gc/trigger", h.HandleGCTrigger, domain.PermAPIKeyManage))

	return mux
}
