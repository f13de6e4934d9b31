// File: api/sync.go
// Package api defines tree synchronisation contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// DiffFunc receives one serialized change record. The bytes are valid
// only for the duration of the call; implementations copy what they keep.
type DiffFunc func(diff []byte)

// DiffSource is a mutable state container that reports every mutation as
// a serialized record and can encode its full contents on demand.
type DiffSource interface {
	// Watch registers fn, invoked synchronously on the mutating
	// goroutine for every change record. The returned cancel removes
	// the registration.
	Watch(fn DiffFunc) (cancel func())
	// Snapshot encodes the full current contents as a single record.
	Snapshot() []byte
}

// DiffTarget is a state container that can be patched by change records
// or wholesale replaced by a snapshot.
type DiffTarget interface {
	// ApplyDiff applies one record. applied is false when the record is
	// stale (already reflected by revision) and was skipped.
	ApplyDiff(diff []byte) (applied bool, err error)
	// ApplySnapshot replaces the full contents from a snapshot record.
	ApplySnapshot(snap []byte) error
}

// Synchroniser drains change records from a source into a target replica.
type Synchroniser interface {
	// PollAndApply drains pending records in FIFO order, or recovers
	// from overflow with a full resync. Returns true when the replica
	// changed.
	PollAndApply() bool
	// ForceResync discards pending records and reimages the replica
	// from a fresh snapshot.
	ForceResync() error
	// Stats reports transfer counters.
	Stats() SyncStats
}
