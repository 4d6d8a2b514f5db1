package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Server struct {
		HTTP struct {
			Address string `koanf:"address"`
		} `koanf:"http"`
	} `koanf:"server"`
	Registry struct {
		MaxDevices int `koanf:"max_devices"`
	} `koanf:"registry"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    address: "127.0.0.1:5480"
registry:
  max_devices: 1000
`)

	l := NewLoader(WithConfigFile(path))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTP.Address != "127.0.0.1:5480" {
		t.Errorf("address = %q, want 127.0.0.1:5480", cfg.Server.HTTP.Address)
	}
	if cfg.Registry.MaxDevices != 1000 {
		t.Errorf("max_devices = %d, want 1000", cfg.Registry.MaxDevices)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load")
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("LoadFile() should fail for missing file")
	}
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    address: "127.0.0.1:5480"
`)
	t.Setenv("SASMINT_SERVER_HTTP_ADDRESS", "0.0.0.0:9999")

	l := NewLoader(WithConfigFile(path))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTP.Address != "0.0.0.0:9999" {
		t.Errorf("address = %q, env should override file", cfg.Server.HTTP.Address)
	}
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_REGISTRY_MAX_DEVICES", "42")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Registry.MaxDevices != 42 {
		t.Errorf("max_devices = %d, want 42", cfg.Registry.MaxDevices)
	}
}

func TestLoader_EnvUnderscoreLeaf(t *testing.T) {
	path := writeConfig(t, `
registry:
  max_devices: 1000
`)
	t.Setenv("SASMINT_REGISTRY_MAX_DEVICES", "250")

	l := NewLoader(WithConfigFile(path))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Registry.MaxDevices != 250 {
		t.Errorf("max_devices = %d, env should override file", cfg.Registry.MaxDevices)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"server.http.address": "10.0.0.1:80"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if got := l.GetString("server.http.address"); got != "10.0.0.1:80" {
		t.Errorf("GetString() = %q, want 10.0.0.1:80", got)
	}
}
