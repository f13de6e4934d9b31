// File: facade/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Immutable run configuration for the mirror facade, with defaults,
// validation, and YAML file loading.

package facade

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-mirror/api"
)

// Config holds parameters immutable per run.
// All fields influence the initialization of internal components and
// cannot be changed at runtime, except the poll backoff ceiling which
// the Control interface can retune through reload.
type Config struct {
	RingCapacity  int   `yaml:"ring_capacity"`  // Slots in the change record ring
	Background    bool  `yaml:"background"`     // Run a dedicated poll goroutine
	MaxBackoffNs  int64 `yaml:"max_backoff_ns"` // Poll loop idle backoff ceiling, in nanoseconds
	CPUAffinity   bool  `yaml:"cpu_affinity"`   // Pin the poll goroutine to a CPU
	PollCPU       int   `yaml:"poll_cpu"`       // Logical CPU for the pinned poll goroutine
	JournalDepth  int   `yaml:"journal_depth"`  // Retained sync-state transitions
	EnableMetrics bool  `yaml:"enable_metrics"` // Whether to publish transfer counters
	EnableDebug   bool  `yaml:"enable_debug"`   // Whether to register debug probes
}

// DefaultConfig returns default configuration values.
// These sane defaults support typical use cases without extensive tuning.
func DefaultConfig() *Config {
	return &Config{
		RingCapacity:  1024,    // 1024 change records in flight
		Background:    true,    // Poll from a dedicated goroutine
		MaxBackoffNs:  1000000, // 1 ms idle backoff ceiling
		CPUAffinity:   false,   // No thread pinning by default
		PollCPU:       -1,      // No CPU preference
		JournalDepth:  32,      // Keep the last 32 state transitions
		EnableMetrics: true,    // Publish counters
		EnableDebug:   true,    // Register probes
	}
}

// Validate reports the first configuration fault found.
func (c *Config) Validate() error {
	if c.RingCapacity < 1 {
		return api.NewError(api.ErrCodeInvalidArgument, "ring capacity must be at least 1").
			WithContext("ring_capacity", c.RingCapacity)
	}
	if c.MaxBackoffNs < 1 {
		return api.NewError(api.ErrCodeInvalidArgument, "max backoff must be positive").
			WithContext("max_backoff_ns", c.MaxBackoffNs)
	}
	if c.JournalDepth < 1 {
		return api.NewError(api.ErrCodeInvalidArgument, "journal depth must be at least 1").
			WithContext("journal_depth", c.JournalDepth)
	}
	if c.CPUAffinity && c.PollCPU < 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "cpu affinity requires a poll cpu").
			WithContext("poll_cpu", c.PollCPU)
	}
	return nil
}

// LoadConfig reads a YAML file over the defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
