package memory

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"media-helper/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap; the rest covers SQLite page cache and goroutine stacks.
const DefaultMemoryRatio = 0.85

// Source values reported in ConfigResult.
const (
	SourceGOMEMLIMIT  = "GOMEMLIMIT"
	SourceMemoryLimit = "MEMORY_LIMIT"
	SourceNone        = "none"
)

// ConfigResult holds the result of memory configuration
type ConfigResult struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureFromEnv sets the Go memory limit from the environment. Call it
// early in main, before large allocations.
//
//   - GOMEMLIMIT: honoured by the runtime itself; only reported here
//   - MEMORY_LIMIT: container limit in bytes or with a unit suffix (512Mi, 2G)
//   - MEMORY_RATIO: share of MEMORY_LIMIT for the heap (default 0.85)
func ConfigureFromEnv() ConfigResult {
	if v := os.Getenv("GOMEMLIMIT"); v != "" {
		result := ConfigResult{Source: SourceGOMEMLIMIT}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return result
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT left at runtime default")
		return ConfigResult{Source: SourceNone}
	}

	limit, err := ParseSize(raw)
	if err != nil {
		logging.Warn("Ignoring MEMORY_LIMIT: %v", err)
		return ConfigResult{Source: SourceNone}
	}

	ratio := DefaultMemoryRatio
	if v := os.Getenv("MEMORY_RATIO"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		switch {
		case err != nil:
			logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", v, err, DefaultMemoryRatio)
		case parsed <= 0 || parsed > 1:
			logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0], using default %.2f", v, DefaultMemoryRatio)
		default:
			ratio = parsed
		}
	}

	goMemLimit := int64(float64(limit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		FormatBytes(goMemLimit), ratio*100, FormatBytes(limit))

	return ConfigResult{
		Configured:     true,
		Source:         SourceMemoryLimit,
		ContainerLimit: limit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

var sizeUnits = []struct {
	suffix string
	factor int64
}{
	{"Ki", 1 << 10}, {"Mi", 1 << 20}, {"Gi", 1 << 30}, {"Ti", 1 << 40},
	{"K", 1e3}, {"M", 1e6}, {"G", 1e9}, {"T", 1e12},
}

// ParseSize parses a byte count with an optional Kubernetes quantity suffix.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	factor := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			s, factor = strings.TrimSuffix(s, u.suffix), u.factor
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n <= 0 {
		return 0, errors.New("size must be positive")
	}
	if n > math.MaxInt64/factor {
		return 0, fmt.Errorf("size %d overflows with factor %d", n, factor)
	}
	return n * factor, nil
}

// FormatBytes formats bytes into a human-readable binary size.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
