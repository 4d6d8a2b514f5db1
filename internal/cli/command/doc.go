// Package command defines the sasmint-cli command tree.
//
// Commands talk to a sasmint-server management API over HTTP, except
// for "token mint" which signs credentials locally from a supplied
// device key.
package command
