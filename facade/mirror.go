// File: facade/mirror.go
// Unified facade layer for the hioload-mirror library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This file defines the TreeMirror struct, which aggregates the core
// components of the library behind a single facade. It owns the shadow
// replica, the change record ring, the synchroniser, an optional
// background poll loop, and the control interfaces, all initialized from
// immutable configuration. The facade exposes methods to start/stop the
// system, drive polling manually, force resynchronisation, and retrieve
// runtime services such as Control, the replica tree, and transfer stats.

package facade

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/momentics/hioload-mirror/adapters"
	"github.com/momentics/hioload-mirror/affinity"
	"github.com/momentics/hioload-mirror/api"
	"github.com/momentics/hioload-mirror/internal/normalize"
	"github.com/momentics/hioload-mirror/mirror"
	"github.com/momentics/hioload-mirror/tree"
)

// TreeMirror is the main facade type.
// It implements api.GracefulShutdown for unified teardown and
// api.Synchroniser so the background loop and manual polling share one
// observed path.
type TreeMirror struct {
	source  *tree.Tree
	replica *tree.Tree
	sync    *mirror.Synchroniser
	loop    *mirror.PollLoop
	control *adapters.ControlAdapter

	config *Config

	// lastStats is the last published counter snapshot, touched only on
	// the consumer side, serialized by the synchroniser's
	// single-consumer guard. Producer-side counters (enqueued, dropped)
	// advance between polls; deltas against this snapshot pick them up.
	lastStats api.SyncStats

	mu      sync.Mutex
	started bool
	closed  bool
}

var (
	_ api.GracefulShutdown = (*TreeMirror)(nil)
	_ api.Synchroniser     = (*TreeMirror)(nil)
)

// New constructs a TreeMirror over the given source tree.
// It builds the replica with the source's root kind, wires the
// synchroniser and control adapter, registers debug probes, and adopts
// the source's current contents through one forced resync so a mirror
// attached late starts complete.
func New(cfg *Config, source *tree.Tree) (*TreeMirror, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "nil source tree")
	}

	replica := tree.NewTree(source.Root().Kind())
	s, err := mirror.NewSynchroniser(source, replica, cfg.RingCapacity)
	if err != nil {
		return nil, err
	}

	m := &TreeMirror{
		source:  source,
		replica: replica,
		sync:    s,
		control: adapters.NewControlAdapter(cfg.JournalDepth),
		config:  cfg,
	}
	m.loop = mirror.NewPollLoop(m, time.Duration(cfg.MaxBackoffNs))

	if cfg.EnableDebug {
		m.control.RegisterDebugProbe("sync.stats", func() any {
			return m.sync.Stats()
		})
		m.control.RegisterDebugProbe("replica.revision", func() any {
			return m.replica.Revision()
		})
	}
	m.control.OnReload(func() {
		if v, ok := asInt64(m.control.GetConfig()["max_backoff_ns"]); ok && v > 0 {
			m.loop.SetMaxBackoff(time.Duration(v))
		}
	})
	if err := m.control.SetConfig(map[string]any{
		"ring_capacity":  cfg.RingCapacity,
		"background":     cfg.Background,
		"max_backoff_ns": cfg.MaxBackoffNs,
		"journal_depth":  cfg.JournalDepth,
	}); err != nil {
		return nil, err
	}

	if err := m.resyncWithReason("initial adoption"); err != nil {
		s.Close()
		return nil, err
	}
	return m, nil
}

// Start launches the background poll goroutine when configured.
// With Background disabled the caller drives PollAndApply directly.
// Subsequent calls to Start() have no effect. A mirror cannot be
// restarted after Shutdown.
func (m *TreeMirror) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return api.ErrMirrorClosed
	}
	if m.started {
		return nil
	}
	if m.config.Background {
		go m.runLoop()
	}
	m.started = true
	return nil
}

func (m *TreeMirror) runLoop() {
	if m.config.CPUAffinity {
		runtime.LockOSThread()
		cpu := normalize.CPUIndexAuto(m.config.PollCPU)
		if err := affinity.SetAffinity(cpu); err != nil {
			log.Printf("[mirror] poll thread pin warning: %v", err)
		}
	}
	m.loop.Run()
}

// Stop halts the poll loop and detaches the capture from the source.
// Calling Stop() on a non-started facade still detaches. Stop is
// idempotent.
func (m *TreeMirror) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	if m.started && m.config.Background {
		m.loop.Stop()
	}
	err := m.sync.Close()
	m.started = false
	m.closed = true
	return err
}

// Shutdown implements api.GracefulShutdown by delegating to Stop().
func (m *TreeMirror) Shutdown() error {
	return m.Stop()
}

// PollAndApply drains pending records into the replica, observing
// state transitions and counter deltas for the journal and metrics.
// Single consumer: do not call concurrently with a running background
// loop.
func (m *TreeMirror) PollAndApply() bool {
	before := m.sync.Stats()
	changed := m.sync.PollAndApply()
	m.observe(before, "record fault resync")
	return changed
}

// ForceResync discards pending records and reimages the replica from a
// fresh snapshot of the source.
func (m *TreeMirror) ForceResync() error {
	return m.resyncWithReason("forced resync")
}

func (m *TreeMirror) resyncWithReason(reason string) error {
	before := m.sync.Stats()
	err := m.sync.ForceResync()
	m.observe(before, reason)
	return err
}

// observe journals sync-state transitions and publishes counter deltas
// since the last published snapshot. Runs only on the consumer side.
func (m *TreeMirror) observe(entry api.SyncStats, resyncReason string) {
	after := m.sync.Stats()
	prev := m.lastStats

	if entry.State == api.StateOverflowed && prev.State == api.StateSynced {
		m.control.Journal().Record(api.StateSynced, api.StateOverflowed, "ring overflow")
	}
	if after.Resyncs > entry.Resyncs {
		reason := resyncReason
		if entry.State == api.StateOverflowed {
			reason = "overflow resync"
		}
		m.control.Journal().Record(entry.State, after.State, reason)
	}

	if m.config.EnableMetrics {
		if d := after.Enqueued - prev.Enqueued; d > 0 {
			m.control.AddMetric("mirror.enqueued", d)
		}
		if d := after.Applied - prev.Applied; d > 0 {
			m.control.AddMetric("mirror.applied", d)
		}
		if d := after.Skipped - prev.Skipped; d > 0 {
			m.control.AddMetric("mirror.skipped", d)
		}
		if d := after.Dropped - prev.Dropped; d > 0 {
			m.control.AddMetric("mirror.dropped", d)
		}
		if d := after.Resyncs - prev.Resyncs; d > 0 {
			m.control.AddMetric("mirror.resyncs", d)
		}
		if after.State != prev.State {
			m.control.SetMetric("mirror.state", after.State.String())
		}
	}
	m.lastStats = after
}

// Stats reports the synchroniser's transfer counters.
func (m *TreeMirror) Stats() api.SyncStats {
	return m.sync.Stats()
}

// Replica returns the shadow tree. Safe for concurrent reads at any
// time; its contents trail the source by the not-yet-drained records.
func (m *TreeMirror) Replica() *tree.Tree {
	return m.replica
}

// Source returns the mirrored tree.
func (m *TreeMirror) Source() *tree.Tree {
	return m.source
}

// GetControl returns the Control interface for dynamic config and metrics.
func (m *TreeMirror) GetControl() api.Control {
	return m.control
}

// GetDebug returns the Debug interface for probe registration and
// state dumps.
func (m *TreeMirror) GetDebug() api.Debug {
	return m.control
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
