// File: mirror/synchroniser.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Synchroniser wires one DiffSource to one DiffTarget through a bounded
// slot ring. The write side belongs to the goroutine mutating the
// source; the read side belongs to whichever single goroutine polls.
// Cross-side misuse is a checked runtime fault, not silent corruption.

package mirror

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/momentics/hioload-mirror/api"
	"github.com/momentics/hioload-mirror/internal/concurrency"
	"github.com/momentics/hioload-mirror/pool"
)

// Ensure compile-time interface compliance.
var _ api.Synchroniser = (*Synchroniser)(nil)

// Synchroniser maintains a shadow replica of a DiffSource.
type Synchroniser struct {
	id     uuid.UUID
	src    api.DiffSource
	dst    api.DiffTarget
	ring   *concurrency.SlotRing[pool.Block]
	state  atomic.Int32 // api.SyncState word: producer raises, consumer clears
	guard  concurrency.Exclusive
	cancel func()
	closed atomic.Bool

	enqueued atomic.Uint64
	dropped  atomic.Uint64
	applied  atomic.Uint64
	skipped  atomic.Uint64
	polls    atomic.Uint64
	resyncs  atomic.Uint64
}

// NewSynchroniser attaches to src and will replay its change records
// into dst. capacity fixes the ring slot count; it does not need to be
// a power of two. The replica starts untouched: call ForceResync (or
// let the first overflow do it) when attaching to a source that
// already has state.
func NewSynchroniser(src api.DiffSource, dst api.DiffTarget, capacity int) (*Synchroniser, error) {
	if src == nil || dst == nil {
		return nil, api.ErrInvalidArgument
	}
	if capacity < 1 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "ring capacity must be at least 1").
			WithContext("capacity", capacity)
	}
	s := &Synchroniser{
		id:   uuid.New(),
		src:  src,
		dst:  dst,
		ring: concurrency.NewSlotRing[pool.Block](capacity),
	}
	s.cancel = src.Watch(s.capture)
	return s, nil
}

// ID returns the instance identity used in stats and probes.
func (s *Synchroniser) ID() string { return s.id.String() }

// Replica returns the target container this synchroniser patches.
func (s *Synchroniser) Replica() api.DiffTarget { return s.dst }

// State returns the current transfer state.
func (s *Synchroniser) State() api.SyncState {
	return api.SyncState(s.state.Load())
}

// PollAndApply drains pending records into the replica in FIFO order.
// After an overflow it discards the backlog and reimages the replica
// from a fresh snapshot instead. Returns true when the replica changed:
// at least one record applied, or a resync completed.
//
// Consumer side only; concurrent calls panic.
func (s *Synchroniser) PollAndApply() bool {
	s.guard.Enter("PollAndApply")
	defer s.guard.Leave()
	s.polls.Add(1)

	if api.SyncState(s.state.Load()) == api.StateOverflowed {
		return s.resync() == nil
	}

	changed := false
	for {
		a, b := s.ring.ReserveRead(1)
		if a.Len+b.Len < 1 {
			return changed
		}
		blk := s.ring.At(a.Start)
		applied, err := s.dst.ApplyDiff(blk.Bytes())
		s.ring.CommitRead(1)
		if err != nil {
			// Undecodable or inapplicable record: the replica may be
			// behind, never corrupted. Recover through the same
			// snapshot path as overflow.
			return s.resync() == nil || changed
		}
		if applied {
			s.applied.Add(1)
			changed = true
		} else {
			s.skipped.Add(1)
		}
	}
}

// ForceResync discards any queued records and reimages the replica from
// a fresh snapshot. Useful when attaching to an already populated
// source. Consumer side only; concurrent calls panic.
func (s *Synchroniser) ForceResync() error {
	s.guard.Enter("ForceResync")
	defer s.guard.Leave()
	return s.resync()
}

// resync implements the overflow recovery sequence: discard the
// backlog, clear the overflow state, then snapshot and reimage. The
// order matters; see capture.go.
func (s *Synchroniser) resync() error {
	s.ring.Reset()
	s.state.Store(int32(api.StateSynced))
	if err := s.dst.ApplySnapshot(s.src.Snapshot()); err != nil {
		// Replica still consistent, only stale. Re-raise so the next
		// poll retries the recovery.
		s.state.Store(int32(api.StateOverflowed))
		return err
	}
	s.resyncs.Add(1)
	return nil
}

// Close detaches from the source. Records already queued may still be
// drained by further polls. Close is idempotent.
func (s *Synchroniser) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.cancel()
	}
	return nil
}

// Stats reports transfer counters. Ready and State are instantaneous
// reads and may trail the other side.
func (s *Synchroniser) Stats() api.SyncStats {
	return api.SyncStats{
		ID:       s.id.String(),
		State:    api.SyncState(s.state.Load()),
		Capacity: s.ring.Cap(),
		Ready:    s.ring.NumReady(),
		Enqueued: s.enqueued.Load(),
		Dropped:  s.dropped.Load(),
		Applied:  s.applied.Load(),
		Skipped:  s.skipped.Load(),
		Polls:    s.polls.Load(),
		Resyncs:  s.resyncs.Load(),
	}
}
