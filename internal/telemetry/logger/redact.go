package logger

import (
	"log/slog"
	"strings"
)

// Sensitive value prefixes, partially masked (prefix plus a hint).
var sensitiveValuePrefixes = []string{
	"smas_", // API key secret (plaintext)
}

// Key name fragments whose string values are fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
	"signature",
}

const redactedValue = "***REDACTED***"

// redactSensitive redacts an attribute if it carries credential
// material. SAS tokens are caught twice: by the "token" key pattern
// and, defensively, by the sig= query parameter in the value.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		val := a.Value.String()

		for _, prefix := range sensitiveValuePrefixes {
			if strings.HasPrefix(val, prefix) {
				return slog.String(a.Key, maskValue(val, prefix))
			}
		}

		if strings.Contains(val, "sig=") {
			return slog.String(a.Key, maskSignature(val))
		}

		keyLower := strings.ToLower(a.Key)
		for _, pattern := range sensitiveKeyPatterns {
			if strings.Contains(keyLower, pattern) {
				if val != "" {
					return slog.String(a.Key, redactedValue)
				}
				break
			}
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	return a
}

// maskValue keeps the prefix and a short hint of the value.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) > 6 {
		return prefix + body[:3] + "..." + body[len(body)-3:]
	}
	return prefix + "***"
}

// maskSignature blanks the sig= parameter of a SAS token string.
func maskSignature(value string) string {
	i := strings.Index(value, "sig=")
	rest := value[i+len("sig="):]
	if j := strings.IndexByte(rest, '&'); j >= 0 {
		return value[:i] + "sig=***" + rest[j:]
	}
	return value[:i] + "sig=***"
}

// IsSensitiveKey checks if a key name suggests credential content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
