// Package httpserver provides the HTTP/HTTPS management API server:
// credential issuance, device registry, API key administration, and
// the metrics endpoint.
package httpserver

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/sasmint-go/internal/infra/tlsroots"
)

// Server wraps http.Server with the configured timeouts and TLS
// wiring.
type Server struct {
	httpServer   *http.Server
	clientCAFile string
	logger       *slog.Logger
}

// Config configures the HTTP server.
type Config struct {
	Addr         string
	TLSCertFile  string
	TLSKeyFile   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ClientCAFile, when set with a TLS cert pair, enables client
	// certificate verification against the given CA bundle.
	ClientCAFile string

	// Logger receives TLS reload events; nil uses slog.Default.
	Logger *slog.Logger
}

// New creates an HTTP server for the given handler.
func New(cfg Config, handler http.Handler) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		clientCAFile: cfg.ClientCAFile,
		logger:       logger,
	}
}

// ListenAndServe starts serving, with TLS when a cert pair was
// configured. The key pair is hot-reloaded on change, so certificate
// renewals apply without a restart.
func (s *Server) ListenAndServe(certFile, keyFile string) error {
	if certFile == "" || keyFile == "" {
		return s.httpServer.ListenAndServe()
	}

	watcher, err := tlsroots.NewWatcher(certFile, keyFile, tlsroots.WithLogger(s.logger))
	if err != nil {
		return err
	}
	watcher.StartAsync()
	defer watcher.Stop()

	tlsCfg := &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: watcher.GetCertificate,
	}

	if s.clientCAFile != "" {
		pool := tlsroots.NewEmptyPool()
		if err := pool.AddCertFile(s.clientCAFile); err != nil {
			return err
		}
		tlsCfg.ClientCAs = pool.CertPool()
		tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	s.httpServer.TLSConfig = tlsCfg
	return s.httpServer.ListenAndServeTLS("", "")
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
