// Package config holds sasmint-cli's own configuration: default
// server address, preferred output format, and saved connections.
// The file lives at ~/.sasmint/cli.yaml with 0600 permissions since
// saved connections carry API key secrets.
package config
