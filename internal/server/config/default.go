package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5480"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultDataDir    = "/var/lib/sasmint-server/data"
	DefaultGCInterval = "10m"

	DefaultMinLifetimeMinutes  = 1
	DefaultMaxLifetimeMinutes  = 24 * 60
	DefaultSignatureBufferSize = 64
	DefaultTokenBufferSize     = 512

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Registry: RegistrySection{
			DataDir:    DefaultDataDir,
			GCInterval: DefaultGCInterval,
			SyncWrites: true,
		},
		Issuance: IssuanceSection{
			MinLifetimeMinutes:  DefaultMinLifetimeMinutes,
			MaxLifetimeMinutes:  DefaultMaxLifetimeMinutes,
			SignatureBufferSize: DefaultSignatureBufferSize,
			TokenBufferSize:     DefaultTokenBufferSize,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}
