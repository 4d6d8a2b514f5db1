// Package connection manages the sasmint-cli side of the management
// API: an HTTP client that carries API key credentials and unwraps the
// server's response envelope, plus a small in-process connection
// registry for the connect/disconnect commands.
package connection
