// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown unifies orderly teardown of library components.
type GracefulShutdown interface {
	// Shutdown stops all internal services and releases resources.
	// Returns an error on failure.
	Shutdown() error
}
