// File: internal/concurrency/slotring.go
// Package concurrency implements lock-free ring buffers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SlotRing is a bounded slot ring with two-phase reserve/commit on both
// sides, atomic read/write cursors padded to prevent false sharing.
// Implements api.SlotRing for cross-package consistency.

package concurrency

import (
	"sync/atomic"

	"github.com/momentics/hioload-mirror/api"
)

// Ensure compile-time interface compliance.
var _ api.SlotRing[any] = (*SlotRing[any])(nil)

// SlotRing is a lock-free slot ring (single-producer, single-consumer safe).
//
// Cursors grow monotonically and are reduced modulo capacity on access,
// so capacity is exact rather than rounded to a power of two. Each
// cursor is stored only by its owning side; read <= write <= read+cap
// holds at all times.
type SlotRing[T any] struct {
	slots []T
	cap   uint64
	read  atomic.Uint64
	_     [64]byte // Padding for hot/cold separation
	write atomic.Uint64
	_     [64]byte // Padding to separate write cursor from other data
}

// NewSlotRing allocates a ring of exactly capacity slots.
func NewSlotRing[T any](capacity int) *SlotRing[T] {
	if capacity < 1 {
		panic("capacity must be at least 1")
	}
	return &SlotRing[T]{
		slots: make([]T, capacity),
		cap:   uint64(capacity),
	}
}

// ReserveWrite grants up to n free slots as at most two spans split at
// the wrap boundary. Producer side only. Never blocks; the grant may be
// empty.
func (r *SlotRing[T]) ReserveWrite(n int) (api.Span, api.Span) {
	w := r.write.Load()
	free := int(r.cap - (w - r.read.Load()))
	if n > free {
		n = free
	}
	return r.spans(w, n)
}

// CommitWrite publishes the first n reserved slots to the reader.
// Slot contents must be fully written before the call.
func (r *SlotRing[T]) CommitWrite(n int) {
	if n <= 0 {
		return
	}
	r.write.Store(r.write.Load() + uint64(n))
}

// ReserveRead grants up to n ready slots as at most two spans in FIFO
// order. Consumer side only.
func (r *SlotRing[T]) ReserveRead(n int) (api.Span, api.Span) {
	rd := r.read.Load()
	ready := int(r.write.Load() - rd)
	if n > ready {
		n = ready
	}
	return r.spans(rd, n)
}

// CommitRead retires the first n consumed slots back to the writer.
// Slot contents must not be touched after the call.
func (r *SlotRing[T]) CommitRead(n int) {
	if n <= 0 {
		return
	}
	r.read.Store(r.read.Load() + uint64(n))
}

// At returns the slot at ring index i, as handed out inside a span.
func (r *SlotRing[T]) At(i int) *T {
	return &r.slots[i]
}

// Reset discards everything queued. Consumer side only: it advances the
// read cursor to a snapshot of the write cursor, which keeps
// read <= write even against a producer committing concurrently.
func (r *SlotRing[T]) Reset() {
	r.read.Store(r.write.Load())
}

// FreeSpace returns slots currently free for writing. Exact on the
// producer side, possibly stale elsewhere.
func (r *SlotRing[T]) FreeSpace() int {
	return int(r.cap - (r.write.Load() - r.read.Load()))
}

// NumReady returns slots currently queued for reading. Exact on the
// consumer side, possibly stale elsewhere.
func (r *SlotRing[T]) NumReady() int {
	return int(r.write.Load() - r.read.Load())
}

// Cap returns the fixed slot count.
func (r *SlotRing[T]) Cap() int {
	return len(r.slots)
}

func (r *SlotRing[T]) spans(from uint64, n int) (api.Span, api.Span) {
	if n <= 0 {
		return api.Span{}, api.Span{}
	}
	start := int(from % r.cap)
	first := int(r.cap) - start
	if n <= first {
		return api.Span{Start: start, Len: n}, api.Span{}
	}
	return api.Span{Start: start, Len: first}, api.Span{Start: 0, Len: n - first}
}
