// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control over control package primitives.
// One adapter instance backs one mirror facade.

package adapters

import (
	"github.com/momentics/hioload-mirror/api"
	"github.com/momentics/hioload-mirror/control"
)

type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
	journal *control.TransitionJournal
}

// NewControlAdapter wires the config store, metrics registry, debug
// probes, and a transition journal of the given depth.
func NewControlAdapter(journalDepth int) *ControlAdapter {
	adapter := &ControlAdapter{
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
		journal: control.NewTransitionJournal(journalDepth),
	}
	control.RegisterPlatformProbes(adapter.debug)
	adapter.debug.RegisterProbe("journal", func() any {
		return adapter.journal.Recent()
	})
	return adapter
}

var (
	_ api.Control = (*ControlAdapter)(nil)
	_ api.Debug   = (*ControlAdapter)(nil)
)

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	c.config.SetConfig(cfg)
	return nil
}

// Stats merges metrics with debug probe output under a "debug." prefix.
func (c *ControlAdapter) Stats() map[string]any {
	combined := c.metrics.GetSnapshot()
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// RegisterProbe implements api.Debug.
func (c *ControlAdapter) RegisterProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// DumpState implements api.Debug with raw probe output, without the
// metric merge Stats performs.
func (c *ControlAdapter) DumpState() map[string]any {
	return c.debug.DumpState()
}

// AddMetric increments a named counter.
func (c *ControlAdapter) AddMetric(key string, delta uint64) {
	c.metrics.Add(key, delta)
}

// SetMetric sets a gauge value.
func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

// Journal exposes the transition journal for recording and inspection.
func (c *ControlAdapter) Journal() *control.TransitionJournal {
	return c.journal
}
