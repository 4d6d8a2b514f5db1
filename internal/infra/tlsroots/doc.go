// Package tlsroots handles TLS material for the management API:
// a trusted-root pool that can take a custom CA on top of the system
// roots, and a certificate watcher that hot-reloads the server key
// pair when the files change on disk.
package tlsroots
