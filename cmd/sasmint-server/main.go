// Package main provides the entry point for sasmint-server.
//
// sasmint-server hosts a device registry on Badger and mints
// time-bounded SAS credentials for registered devices over a
// management HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/sasmint-go/internal/core/domain"
	"github.com/yndnr/sasmint-go/internal/core/service"
	"github.com/yndnr/sasmint-go/internal/infra/buildinfo"
	"github.com/yndnr/sasmint-go/internal/infra/confloader"
	"github.com/yndnr/sasmint-go/internal/infra/shutdown"
	"github.com/yndnr/sasmint-go/internal/server/config"
	"github.com/yndnr/sasmint-go/internal/server/httpserver"
	"github.com/yndnr/sasmint-go/internal/storage"
	"github.com/yndnr/sasmint-go/internal/telemetry/logger"
	"github.com/yndnr/sasmint-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("sasmint-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting sasmint-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := metric.NewPrometheus(promReg)

	engine, err := initStorage(cfg, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	engine.RegisterMetrics(promReg)

	deviceRepo := storage.NewDeviceRepo(engine)
	apiKeyRepo := storage.NewAPIKeyRepo(engine)

	issuerSvc := service.NewIssuerService(deviceRepo, &service.IssuerConfig{
		MinLifetimeMinutes:  cfg.Issuance.MinLifetimeMinutes,
		MaxLifetimeMinutes:  cfg.Issuance.MaxLifetimeMinutes,
		SignatureBufferSize: cfg.Issuance.SignatureBufferSize,
		TokenBufferSize:     cfg.Issuance.TokenBufferSize,
	}, metrics, log)

	registrySvc := service.NewRegistryService(deviceRepo, &service.RegistryConfig{
		MaxDevices: cfg.Registry.MaxDevices,
	}, metrics, log)

	authSvc := service.NewAuthService(apiKeyRepo, metrics, log)

	if err := bootstrapAPIKey(cfg, authSvc, log); err != nil {
		return fmt.Errorf("bootstrap api key: %w", err)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Issuer:              issuerSvc,
		Registry:            registrySvc,
		Auth:                authSvc,
		Store:               engine,
		Logger:              log,
		Metrics:             metrics,
		MetricsHandler:      metricsHandler(cfg, promReg),
		MetricsAuthRequired: false,
		EnableAudit:         true,
	})

	httpServer := httpserver.New(httpserver.Config{
		Addr:         cfg.Server.HTTP.Addr,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		ClientCAFile: cfg.Security.TLSCAFile,
		Logger:       log.Slog(),
	}, router)

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)
	shutdownHandler.OnShutdown("http server", func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	})
	shutdownHandler.OnShutdown("storage engine", func(ctx context.Context) error {
		return engine.Close()
	})

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)
		err := httpServer.ListenAndServe(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		if err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()

	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    os.Stdout,
		AddSource: cfg.Log.AddSource,
	})
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log, nil
}

func initStorage(cfg *config.ServerConfig, log logger.Logger) (*storage.BadgerEngine, error) {
	badgerCfg := storage.DefaultBadgerConfig()
	badgerCfg.SyncWrites = cfg.Registry.SyncWrites
	if cfg.Registry.GCInterval != "" {
		if _, err := time.ParseDuration(cfg.Registry.GCInterval); err != nil {
			return nil, fmt.Errorf("parse gc_interval: %w", err)
		}
		badgerCfg.GCInterval = cfg.Registry.GCInterval
	}

	return storage.NewBadgerEngine(storage.KVConfig{
		Dir:    cfg.Registry.DataDir,
		Badger: badgerCfg,
	}, log.Slog())
}

// bootstrapAPIKey creates the initial management key when the store
// has none and the config names one. The generated secret is printed
// to stdout exactly once; with a pinned secret nothing is printed.
func bootstrapAPIKey(cfg *config.ServerConfig, auth *service.AuthService, log logger.Logger) error {
	if cfg.Security.BootstrapKeyName == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := auth.ListKeys(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	role := domain.Role(cfg.Security.BootstrapKeyRole)
	key, secret, err := auth.CreateKey(ctx, cfg.Security.BootstrapKeyName, role)
	if err != nil {
		return err
	}

	if cfg.Security.BootstrapKeySecret != "" {
		if err := auth.PinSecret(ctx, key.ID, cfg.Security.BootstrapKeySecret); err != nil {
			return err
		}
		log.Info("bootstrap api key created with pinned secret", "key_id", key.ID)
		return nil
	}

	log.Info("bootstrap api key created", "key_id", key.ID)
	fmt.Printf("bootstrap api key %s secret: %s\n", key.ID, secret)
	return nil
}

func metricsHandler(cfg *config.ServerConfig, reg *prometheus.Registry) http.Handler {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
