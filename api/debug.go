// Package api
// Author: momentics
//
// Live debug and introspection support for mirror deployments.

package api

// Debug exposes runtime introspection and health probes.
type Debug interface {
	// DumpState emits a snapshot of registered probe output.
	DumpState() map[string]any

	// RegisterProbe dynamically registers a named debug probe.
	RegisterProbe(name string, fn func() any)
}
