// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory layer for hioload-mirror. Provides the reusable slot storage
// that backs the transfer ring: grow-only blocks that amortize away
// allocation on the producer hot path once warmed.
// See block.go for implementation details.
package pool
