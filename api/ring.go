// File: api/ring.go
// Package api defines the slot ring contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded slot ring for cross-thread producer/consumer transfer with
// two-phase reservation. Indices wrap, so one reservation may come back
// as two spans.

package api

// Span is a contiguous run of slot indices inside a ring.
type Span struct {
	Start int
	Len   int
}

// Empty reports whether the span covers no slots.
func (s Span) Empty() bool { return s.Len == 0 }

// SlotRing is a bounded single-producer/single-consumer ring of reusable
// slots with two-phase reserve/commit on both sides.
//
// Exactly one goroutine may drive the write side and one the read side.
// Reservation never blocks: it grants between 0 and n slots.
type SlotRing[T any] interface {
	// ReserveWrite grants up to n free slots as at most two spans.
	ReserveWrite(n int) (Span, Span)
	// CommitWrite publishes the first n reserved slots to the reader.
	CommitWrite(n int)
	// ReserveRead grants up to n ready slots as at most two spans.
	ReserveRead(n int) (Span, Span)
	// CommitRead retires the first n consumed slots back to the writer.
	CommitRead(n int)
	// At returns the slot at ring index i.
	At(i int) *T
	// Reset discards all ready slots. Reader side only.
	Reset()
	// FreeSpace returns slots currently available to the writer.
	// May be stale when observed from the other side.
	FreeSpace() int
	// NumReady returns slots currently available to the reader.
	// May be stale when observed from the other side.
	NumReady() int
	// Cap returns the fixed slot count.
	Cap() int
}
