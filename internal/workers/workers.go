package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "SCAN_WORKERS"

// Count returns a worker count of multiplier workers per usable CPU, at
// least one. GOMAXPROCS already reflects container CPU limits.
//
// Use 1.0 for CPU-bound work (row decoding) and 2.0 for work that blocks
// on the record store. A positive limit caps the result, including a
// SCAN_WORKERS override.
func Count(multiplier float64, limit int) int {
	n, ok := envCount()
	if !ok {
		n = max(int(float64(runtime.GOMAXPROCS(0))*multiplier), 1)
	}
	if limit > 0 {
		n = min(n, limit)
	}
	return n
}

// envCount reads a positive SCAN_WORKERS value.
func envCount() (int, bool) {
	n, err := strconv.Atoi(os.Getenv(EnvOverride))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ForCPU returns one worker per CPU, capped by limit.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns two workers per CPU, capped by limit. Scans block on the
// record store, so the shared pool is sized with ForIO.
func ForIO(limit int) int {
	return Count(2.0, limit)
}
