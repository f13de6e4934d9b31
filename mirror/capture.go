// File: mirror/capture.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Producer-side capture path. Runs synchronously on the mutating
// goroutine, usually under the source container's write lock, so it is
// restricted to O(1) work: one slot reservation, one copy, one commit.
// No locks, no allocation once the slot storage has warmed up, and
// never an error: a full ring degrades to the overflow state.

package mirror

import "github.com/momentics/hioload-mirror/api"

// capture enqueues one serialized change record, or raises overflow
// when no slot is free.
func (s *Synchroniser) capture(diff []byte) {
	a, b := s.ring.ReserveWrite(1)
	if a.Len+b.Len < 1 {
		s.dropped.Add(1)
		// The consumer clears this state before taking its recovery
		// snapshot, so a drop hidden by the clear is still covered by
		// the snapshot's revision.
		s.state.Store(int32(api.StateOverflowed))
		return
	}
	s.ring.At(a.Start).Set(diff)
	s.ring.CommitWrite(1)
	s.enqueued.Add(1)
}
