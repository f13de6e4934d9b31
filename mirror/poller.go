// File: mirror/poller.go
// Package mirror implements a poll-driven consumer loop with adaptive backoff.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mirror

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-mirror/api"
)

// PollLoop drives a Synchroniser from a dedicated goroutine, spinning
// while records flow and backing off exponentially while idle.
type PollLoop struct {
	sync      api.Synchroniser
	stopCh    chan struct{}
	running   int32
	stopping  int32
	stopped   int32
	backoffNs int64
	maxNs     int64
}

// NewPollLoop creates a loop around sync. maxBackoff caps the idle
// sleep; zero or negative selects one millisecond.
func NewPollLoop(sync api.Synchroniser, maxBackoff time.Duration) *PollLoop {
	maxNs := maxBackoff.Nanoseconds()
	if maxNs <= 0 {
		maxNs = int64(time.Millisecond)
	}
	return &PollLoop{
		sync:      sync,
		stopCh:    make(chan struct{}),
		backoffNs: 1,
		maxNs:     maxNs,
	}
}

// SetMaxBackoff adjusts the idle sleep ceiling while running.
func (pl *PollLoop) SetMaxBackoff(d time.Duration) {
	if ns := d.Nanoseconds(); ns > 0 {
		atomic.StoreInt64(&pl.maxNs, ns)
	}
}

// Run polls until Stop. The calling goroutine owns the consumer side
// for the whole loop lifetime.
func (pl *PollLoop) Run() {
	if !atomic.CompareAndSwapInt32(&pl.running, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&pl.stopped, 1)
	for {
		select {
		case <-pl.stopCh:
			return
		default:
			if pl.sync.PollAndApply() {
				atomic.StoreInt64(&pl.backoffNs, 1)
			} else {
				pl.adaptiveBackoff()
			}
		}
	}
}

// Stop halts the loop and waits for the goroutine inside Run to leave.
// Closing the channel first also covers a Run that has been launched
// but not yet scheduled: its first select observes the closed channel
// and exits.
func (pl *PollLoop) Stop() {
	if !atomic.CompareAndSwapInt32(&pl.stopping, 0, 1) {
		return
	}
	close(pl.stopCh)
	for atomic.LoadInt32(&pl.running) == 1 && atomic.LoadInt32(&pl.stopped) == 0 {
		time.Sleep(time.Microsecond)
	}
}

func (pl *PollLoop) adaptiveBackoff() {
	select {
	case <-pl.stopCh:
		return
	default:
	}
	backoff := atomic.LoadInt64(&pl.backoffNs)
	if backoff < int64(time.Microsecond) {
		runtime.Gosched()
	} else {
		time.Sleep(time.Duration(backoff))
	}
	next := backoff * 2
	if ceil := atomic.LoadInt64(&pl.maxNs); next > ceil {
		next = ceil
	}
	atomic.StoreInt64(&pl.backoffNs, next)
}
