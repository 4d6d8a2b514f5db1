package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyRegistry(&cfg.Registry); err != nil {
		return err
	}
	if err := verifyIssuance(&cfg.Issuance); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr is not host:port: %w", err)
	}
	// TLS needs both halves of the pair.
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http: tls_cert_file and tls_key_file must be set together")
	}
	return nil
}

func verifyRegistry(cfg *RegistrySection) error {
	if cfg.DataDir == "" {
		return errors.New("registry.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	if cfg.MaxDevices < 0 {
		return errors.New("registry.max_devices must not be negative")
	}
	if cfg.GCInterval != "" {
		if _, err := time.ParseDuration(cfg.GCInterval); err != nil {
			return fmt.Errorf("registry.gc_interval: %w", err)
		}
	}
	return nil
}

func verifyIssuance(cfg *IssuanceSection) error {
	if cfg.MinLifetimeMinutes == 0 {
		return errors.New("issuance.min_lifetime_minutes must be at least 1")
	}
	if cfg.MaxLifetimeMinutes < cfg.MinLifetimeMinutes {
		return errors.New("issuance.max_lifetime_minutes must not be below the minimum")
	}
	// HMAC-SHA256 output needs 32 bytes; the base64 form 44.
	if cfg.SignatureBufferSize < 32 {
		return errors.New("issuance.signature_buffer_size must be at least 32")
	}
	if cfg.TokenBufferSize < 128 {
		return errors.New("issuance.token_buffer_size must be at least 128")
	}
	return nil
}
