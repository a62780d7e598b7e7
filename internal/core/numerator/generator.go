package numerator

import (
	"context"
	"fmt"
	"time"
)

// Generator hands out sequential numbers.
// Implementations live in the infrastructure layer.
type Generator interface {
	// Next returns the next formatted number for cfg in the period containing at.
	Next(ctx context.Context, cfg Config, opts *Options, at time.Time) (string, error)
}

// SequenceKey names the sequence row used for cfg at the given time.
func SequenceKey(cfg Config, at time.Time) string {
	switch cfg.Reset {
	case ResetMonthly:
		return fmt.Sprintf("%s_%s", cfg.Prefix, at.Format("2006_01"))
	case ResetNever:
		return cfg.Prefix
	default:
		return fmt.Sprintf("%s_%s", cfg.Prefix, at.Format("2006"))
	}
}

// Format renders a sequence value, e.g. PED-2026-00042.
func Format(cfg Config, at time.Time, n int64) string {
	width := cfg.PadWidth
	if width <= 0 {
		width = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, at.Format("2006"), width, n)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, width, n)
}

// Parse extracts the sequence value from a formatted number.
// Returns -1 if it cannot be parsed.
func Parse(formatted string) int64 {
	var n int64
	for _, pattern := range []string{"%*[^-]-%*d-%d", "%*[^-]-%d"} {
		if _, err := fmt.Sscanf(formatted, pattern, &n); err == nil {
			return n
		}
	}
	return -1
}
