// Package service provides the domain services for SasMint: credential
// issuance, device registry management, and management-API
// authentication.
//
// Services contain the business logic and define the storage
// interfaces they depend on; repositories implement them in
// internal/storage.
package service
