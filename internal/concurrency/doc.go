// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-free concurrency primitives for hioload-mirror. Provides the
// bounded slot ring carrying serialized change records between the
// mutating and polling goroutines, and the misuse guard that turns
// concurrent same-side access into a hard fault.
//
// Cursors use only atomic loads and stores; neither side ever spins on
// a compare-and-swap or takes a lock on the transfer path.
package concurrency
