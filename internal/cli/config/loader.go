package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".sasmint", "cli.yaml")
}

// Load reads CLI configuration from path, falling back to defaults
// when the file does not exist.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]ConnectionConfig)
	}

	if err := openConnections(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openConnections decrypts sealed API key secrets in place.
func openConnections(path string, cfg *CLIConfig) error {
	var key []byte
	for name, conn := range cfg.Connections {
		if !strings.HasPrefix(conn.APIKey, sealedPrefix) {
			continue
		}
		if key == nil {
			var err error
			if key, err = loadOrCreateKey(path); err != nil {
				return err
			}
		}
		secret, err := openSecret(key, name, conn.APIKey)
		if err != nil {
			return fmt.Errorf("connection %s: %w", name, err)
		}
		conn.APIKey = secret
		cfg.Connections[name] = conn
	}
	return nil
}

// Save writes CLI configuration to path. Saved connections hold API
// key secrets, so the file is written 0600.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	// Seal secrets before they touch disk; the in-memory config is
	// left as the caller provided it.
	onDisk := *cfg
	onDisk.Connections = make(map[string]ConnectionConfig, len(cfg.Connections))
	var key []byte
	for name, conn := range cfg.Connections {
		if conn.APIKey != "" && !strings.HasPrefix(conn.APIKey, sealedPrefix) {
			if key == nil {
				var err error
				if key, err = loadOrCreateKey(path); err != nil {
					return err
				}
			}
			sealed, err := sealSecret(key, name, conn.APIKey)
			if err != nil {
				return fmt.Errorf("connection %s: %w", name, err)
			}
			conn.APIKey = sealed
		}
		onDisk.Connections[name] = conn
	}

	data, err := yaml.Marshal(&onDisk)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
