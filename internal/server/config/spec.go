// Package config defines the server configuration: structure,
// defaults, validation, and log sanitization. Values are loaded via
// internal/infra/confloader from file, environment, and flags.
package config

import "time"

// ServerConfig is the root configuration for sasmint-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Registry RegistrySection `koanf:"registry"`
	Issuance IssuanceSection `koanf:"issuance"`
	Security SecuritySection `koanf:"security"`
	Log      LogSection      `koanf:"log"`
	Metrics  MetricsSection  `koanf:"metrics"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RegistrySection configures device registry storage.
type RegistrySection struct {
	// DataDir is the Badger storage directory.
	DataDir string `koanf:"data_dir"`

	// MaxDevices caps the registry size; 0 means unlimited.
	MaxDevices int `koanf:"max_devices"`

	// GCInterval is the storage GC interval (Go duration string).
	GCInterval string `koanf:"gc_interval"`

	// SyncWrites enables fsync per registry write.
	SyncWrites bool `koanf:"sync_writes"`
}

// IssuanceSection bounds credential issuance.
type IssuanceSection struct {
	// MinLifetimeMinutes / MaxLifetimeMinutes bound requested token
	// lifetimes.
	MinLifetimeMinutes uint32 `koanf:"min_lifetime_minutes"`
	MaxLifetimeMinutes uint32 `koanf:"max_lifetime_minutes"`

	// SignatureBufferSize / TokenBufferSize size the issuer's scratch
	// buffers.
	SignatureBufferSize int `koanf:"signature_buffer_size"`
	TokenBufferSize     int `koanf:"token_buffer_size"`
}

// SecuritySection configures management API authentication.
type SecuritySection struct {
	// BootstrapKeyName, when set with BootstrapKeyRole, creates an
	// initial API key at first startup and prints its secret once.
	BootstrapKeyName string `koanf:"bootstrap_key_name"`
	BootstrapKeyRole string `koanf:"bootstrap_key_role"`

	// BootstrapKeySecret optionally pins the bootstrap key's secret
	// instead of generating one. Masked in sanitized output.
	BootstrapKeySecret string `koanf:"bootstrap_key_secret"`

	// TLSCAFile, when set with a TLS cert pair, requires and
	// verifies client certificates against this CA bundle.
	TLSCAFile string `koanf:"tls_ca_file"`
}

// LogSection configures logging.
type LogSection struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	AddSource bool   `koanf:"add_source"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}
