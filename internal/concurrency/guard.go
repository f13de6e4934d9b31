// File: internal/concurrency/guard.go
// Package concurrency implements misuse detection for single-owner paths.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "sync/atomic"

// Exclusive detects concurrent entry into a code path that admits
// exactly one goroutine. Violations are programmer errors and fail hard
// instead of corrupting state silently.
type Exclusive struct {
	busy atomic.Int32
}

// Enter claims the path; panics when another goroutine already holds it.
func (g *Exclusive) Enter(path string) {
	if !g.busy.CompareAndSwap(0, 1) {
		panic("concurrency: " + path + " entered from multiple goroutines")
	}
}

// Leave releases the path claimed by Enter.
func (g *Exclusive) Leave() {
	g.busy.Store(0)
}
