package scheduler

import (
	"runtime"

	"heicbatch/internal/config"
)

const (
	// DefaultLanes is used when the host parallelism is unknown.
	DefaultLanes = 4
	// MaxLanes caps simultaneous conversions.
	MaxLanes = config.MaxConcurrency
)

// LaneCount clamps parallelism to 1..MaxLanes, falling back to DefaultLanes
// when parallelism is not positive.
func LaneCount(parallelism int) int {
	switch {
	case parallelism <= 0:
		return DefaultLanes
	case parallelism > MaxLanes:
		return MaxLanes
	default:
		return parallelism
	}
}

// LanesFromConfig honors conversion.concurrency when set and otherwise derives
// the lane count from the CPU count.
func LanesFromConfig(cfg *config.Config) int {
	if cfg != nil && cfg.Conversion.Concurrency > 0 {
		return LaneCount(cfg.Conversion.Concurrency)
	}
	return LaneCount(runtime.NumCPU())
}
