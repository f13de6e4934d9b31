// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

// SyncState enumerates the transfer state between a source tree and its
// shadow replica.
type SyncState int32

const (
	StateSynced SyncState = iota
	StateOverflowed
)

func (s SyncState) String() string {
	switch s {
	case StateSynced:
		return "synced"
	case StateOverflowed:
		return "overflowed"
	default:
		return "unknown"
	}
}

// SyncStats provides a standard layout for synchroniser statistics.
type SyncStats struct {
	ID       string // synchroniser instance id
	State    SyncState
	Capacity int
	Ready    int    // records queued right now
	Enqueued uint64 // records accepted into the ring
	Dropped  uint64 // records lost to overflow
	Applied  uint64 // records applied to the replica
	Skipped  uint64 // stale records skipped by revision gating
	Polls    uint64
	Resyncs  uint64 // full-snapshot recoveries
}
