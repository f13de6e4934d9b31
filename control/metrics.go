// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for mirror monitoring.
// Exposes monotonic counters and point-in-time gauges in a thread-safe
// registry with dynamic registration.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsRegistry holds counters, gauges, and the last update time.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Uint64
	gauges   map[string]any
	updated  time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*atomic.Uint64),
		gauges:   make(map[string]any),
	}
}

// Add increments a named counter, creating it on first use.
func (mr *MetricsRegistry) Add(key string, delta uint64) {
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if !ok {
		mr.mu.Lock()
		if c, ok = mr.counters[key]; !ok {
			c = new(atomic.Uint64)
			mr.counters[key] = c
		}
		mr.updated = time.Now()
		mr.mu.Unlock()
	}
	c.Add(delta)
}

// Counter returns the current value of a counter, zero when absent.
func (mr *MetricsRegistry) Counter(key string) uint64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	if c, ok := mr.counters[key]; ok {
		return c.Load()
	}
	return 0
}

// Set sets or replaces a gauge value.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.gauges[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns all counters and gauges as one flat map.
// Counter values appear as uint64.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.counters)+len(mr.gauges))
	for k, c := range mr.counters {
		out[k] = c.Load()
	}
	for k, v := range mr.gauges {
		out[k] = v
	}
	return out
}

// Updated reports when the registry shape last changed.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
