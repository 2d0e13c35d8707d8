package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the variable that pins the worker count.
const EnvOverride = "INDEX_WORKERS"

// StatLimit caps the walker's stat pool. Network shares tend to degrade
// with more concurrent metadata requests than this.
const StatLimit = 4

// Count returns multiplier workers per available CPU, at least one and at
// most limit (0 means no cap). A valid INDEX_WORKERS value replaces the
// computed count but is still capped by limit.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForCPU returns one worker per CPU.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns two workers per CPU.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// StatWorkers returns the pool size for stat'ing walked files. An explicit
// INDEX_WORKERS value is honored even above StatLimit.
func StatWorkers() int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return count
		}
	}
	return ForIO(StatLimit)
}
