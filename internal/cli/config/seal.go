package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/sasmint-go/pkg/crypto/adaptive"
)

// sealedPrefix marks an encrypted value in the config file.
const sealedPrefix = "sealed:"

// keyFileName sits next to the config file and holds the local
// encryption key, created on first save.
const keyFileName = "secret.key"

// loadOrCreateKey reads the machine-local encryption key next to the
// config file, generating one with 0600 permissions if absent.
func loadOrCreateKey(configPath string) ([]byte, error) {
	keyPath := filepath.Join(filepath.Dir(configPath), keyFileName)

	data, err := os.ReadFile(keyPath)
	if err == nil {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode key file %s: %w", keyPath, err)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key) + "\n"
	if err := os.WriteFile(keyPath, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}

// sealSecret encrypts a connection secret for storage. The connection
// name binds the ciphertext so entries cannot be swapped between
// connections.
func sealSecret(key []byte, connName, secret string) (string, error) {
	c, err := adaptive.New(key)
	if err != nil {
		return "", err
	}
	ciphertext, err := c.Encrypt([]byte(secret), []byte("conn:"+connName))
	if err != nil {
		return "", err
	}
	return sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// openSecret decrypts a stored connection secret. Plain values (from
// hand-edited configs) pass through untouched.
func openSecret(key []byte, connName, stored string) (string, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return stored, nil
	}
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("decode sealed secret: %w", err)
	}
	c, err := adaptive.New(key)
	if err != nil {
		return "", err
	}
	plaintext, err := c.Decrypt(ciphertext, []byte("conn:"+connName))
	if err != nil {
		return "", fmt.Errorf("open sealed secret: %w", err)
	}
	return string(plaintext), nil
}
