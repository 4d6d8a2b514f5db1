// Package domain defines the core domain models for SasMint: registered
// devices, issued credentials, management API keys, and the structured
// error taxonomy shared by services and transports.
//
// Domain models are storage-agnostic; repositories live behind
// interfaces defined by the service layer.
package domain
