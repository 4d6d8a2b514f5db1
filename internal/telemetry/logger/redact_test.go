package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// logLine logs one entry through a JSON logger and decodes it.
func logLine(t *testing.T, args ...any) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Info("test entry", args...)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	return entry
}

func TestRedact_APIKeySecret(t *testing.T) {
	entry := logLine(t, "provided", "smas_AbCdEfGhIjKlMnOpQrStUvWxYz0123456789abcd")

	got, _ := entry["provided"].(string)
	if strings.Contains(got, "AbCdEfGhIj") {
		t.Errorf("secret leaked into log: %q", got)
	}
	if !strings.HasPrefix(got, "smas_") {
		t.Errorf("masked secret lost its prefix: %q", got)
	}
}

func TestRedact_SensitiveKeyNames(t *testing.T) {
	tests := []struct {
		key string
		val string
	}{
		{"device_key", "AAECAwQFBgcICQoLDA0ODw=="},
		{"primary_key", "c2VjcmV0"},
		{"password", "hunter2"},
		{"authorization", "Bearer abc"},
	}

	for _, tt := range tests {
		entry := logLine(t, tt.key, tt.val)
		if got, _ := entry[tt.key].(string); got != redactedValue {
			t.Errorf("key %q: value = %q, want %q", tt.key, got, redactedValue)
		}
	}
}

func TestRedact_TokenSignature(t *testing.T) {
	token := "SharedAccessSignature sr=hub/devices/d1&sig=WCH5R7wjFpydriFM%3D&se=1700003600"
	entry := logLine(t, "credential_for", token)

	got, _ := entry["credential_for"].(string)
	if strings.Contains(got, "WCH5R7") {
		t.Errorf("signature leaked into log: %q", got)
	}
	if !strings.Contains(got, "se=1700003600") {
		t.Errorf("non-sensitive token parts over-redacted: %q", got)
	}
}

func TestRedact_PlainValuesUntouched(t *testing.T) {
	entry := logLine(t, "device_id", "thermostat-7", "hub", "hub.example.net")

	if got, _ := entry["device_id"].(string); got != "thermostat-7" {
		t.Errorf("device_id = %q, want thermostat-7", got)
	}
	if got, _ := entry["hub"].(string); got != "hub.example.net" {
		t.Errorf("hub = %q, want hub.example.net", got)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	for key, want := range map[string]bool{
		"device_key": true,
		"secret":     true,
		"token":      true,
		"device_id":  false,
		"hub":        false,
	} {
		if got := IsSensitiveKey(key); got != want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", key, got, want)
		}
	}
}
