// File: internal/normalize/normalizer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Index normalization for CPU pinning. All call sites taking a CPU
// parameter validate it against the actual topology here, so a stale
// config on smaller hardware degrades to core 0 instead of failing the
// pin syscall.

package normalize

import (
	"log"
	"runtime"
)

// CPUIndex validates a CPU index against maxCPUs.
//   - If requested < 0 or >= maxCPUs, returns fallback value 0.
//   - If maxCPUs < 1, always returns 0.
func CPUIndex(requested int, maxCPUs int) int {
	if maxCPUs < 1 {
		log.Printf("[normalize] CPU topology reported <1 cores, fallback to 0")
		return 0
	}
	if requested < 0 || requested >= maxCPUs {
		log.Printf("[normalize] CPU index %d out of range [0, %d), fallback to 0", requested, maxCPUs)
		return 0
	}
	return requested
}

// CPUIndexAuto validates against runtime.NumCPU().
func CPUIndexAuto(requested int) int {
	if requested < 0 {
		return 0
	}
	return CPUIndex(requested, runtime.NumCPU())
}
