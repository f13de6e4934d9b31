// control/journal.go
// Author: momentics <momentics@gmail.com>
//
// Bounded FIFO journal of sync-state transitions for post-mortem
// inspection of overflow and recovery episodes.

package control

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-mirror/api"
)

// Transition is one recorded sync-state change.
type Transition struct {
	At     time.Time
	From   api.SyncState
	To     api.SyncState
	Reason string
}

// TransitionJournal keeps the most recent transitions up to a fixed
// capacity, discarding the oldest first.
type TransitionJournal struct {
	mu  sync.Mutex
	q   *queue.Queue
	cap int
}

// NewTransitionJournal creates a journal holding at most capacity
// entries. Capacity below one is raised to one.
func NewTransitionJournal(capacity int) *TransitionJournal {
	if capacity < 1 {
		capacity = 1
	}
	return &TransitionJournal{
		q:   queue.New(),
		cap: capacity,
	}
}

// Record appends a transition, evicting the oldest entries beyond
// the journal capacity.
func (tj *TransitionJournal) Record(from, to api.SyncState, reason string) {
	tj.mu.Lock()
	defer tj.mu.Unlock()
	tj.q.Add(Transition{
		At:     time.Now(),
		From:   from,
		To:     to,
		Reason: reason,
	})
	for tj.q.Length() > tj.cap {
		tj.q.Remove()
	}
}

// Len returns the number of retained transitions.
func (tj *TransitionJournal) Len() int {
	tj.mu.Lock()
	defer tj.mu.Unlock()
	return tj.q.Length()
}

// Recent returns retained transitions, oldest first.
func (tj *TransitionJournal) Recent() []Transition {
	tj.mu.Lock()
	defer tj.mu.Unlock()
	out := make([]Transition, 0, tj.q.Length())
	for i := 0; i < tj.q.Length(); i++ {
		out = append(out, tj.q.Get(i).(Transition))
	}
	return out
}
