// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration, metrics, and debug introspection for mirror
// deployments.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic updates
//   - Runtime observers for configuration reload
//   - Counter and gauge telemetry for poll/apply/drop accounting
//   - Sync-state transition journaling with bounded history
//   - State export, debug hooks, and probe registration
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
