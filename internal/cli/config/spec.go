package config

// CLIConfig is the configuration for sasmint-cli.
type CLIConfig struct {
	// DefaultServer is used when no --server flag is given.
	DefaultServer string `yaml:"default_server"`

	// DefaultOutput picks the output format: table, json, yaml.
	DefaultOutput string `yaml:"default_output"`

	// Connections are named, saved server endpoints.
	Connections map[string]ConnectionConfig `yaml:"connections"`

	// CurrentConnection names the active saved connection.
	CurrentConnection string `yaml:"current_connection"`
}

// ConnectionConfig stores one saved connection.
type ConnectionConfig struct {
	Server   string `yaml:"server"`
	APIKeyID string `yaml:"api_key_id"`
	APIKey   string `yaml:"api_key"`
	TLS      bool   `yaml:"tls"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "http://127.0.0.1:5480",
		DefaultOutput: "table",
		Connections:   make(map[string]ConnectionConfig),
	}
}
