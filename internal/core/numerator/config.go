// Package numerator defines how order numbers are generated.
package numerator

import "fmt"

// Strategy selects how numbers are reserved from the sequence table.
type Strategy int

const (
	// StrategyStrict reserves one number per call. No gaps.
	StrategyStrict Strategy = iota

	// StrategyCached reserves a block of numbers and hands them out from
	// memory. A restart loses the unused tail of the block.
	StrategyCached
)

// Period controls when a sequence starts over at 1.
type Period string

const (
	ResetYearly  Period = "year"
	ResetMonthly Period = "month"
	ResetNever   Period = "never"
)

// Options tunes number reservation.
type Options struct {
	Strategy Strategy
	// BlockSize is the number of values reserved at once by StrategyCached.
	BlockSize int64
}

// DefaultBlockSize is used when Options.BlockSize is not positive.
const DefaultBlockSize int64 = 50

// Config describes the shape of a number, e.g. PED-2026-00042.
type Config struct {
	Prefix      string
	IncludeYear bool
	PadWidth    int
	Reset       Period
}

// OrderConfig is the numbering used for placed orders.
func OrderConfig() Config {
	return Config{
		Prefix:      "PED",
		IncludeYear: true,
		PadWidth:    5,
		Reset:       ResetYearly,
	}
}

// Validate checks the config can produce numbers.
func (c Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("numerator: prefix is required")
	}
	switch c.Reset {
	case ResetYearly, ResetMonthly, ResetNever, "":
	default:
		return fmt.Errorf("numerator: unknown reset period %q", c.Reset)
	}
	return nil
}
