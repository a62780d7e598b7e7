// Package types provides common type aliases and utilities.
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyPlaces is the number of fraction digits used for display and for catalog prices.
const MoneyPlaces int32 = 2

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// MoneyFromInt converts an integer count (packs, base units) into Money for multiplication.
func MoneyFromInt(n int) Money {
	return decimal.NewFromInt(int64(n))
}

// RoundDisplay rounds half away from zero to 2 places.
// Only presentation code calls this; arithmetic keeps full precision.
func RoundDisplay(m Money) Money {
	return m.Round(MoneyPlaces)
}

// FixedString renders m with exactly 2 fraction digits ("58.30").
func FixedString(m Money) string {
	return m.StringFixed(MoneyPlaces)
}

// HasAtMostPlaces reports whether m has no more than places fraction digits.
func HasAtMostPlaces(m Money, places int32) bool {
	return m.Equal(m.Truncate(places))
}

// MaxMoney returns the larger of a and b.
func MaxMoney(a, b Money) Money {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// MinMoney returns the smaller of a and b.
func MinMoney(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}

// FormatBRL formats m as Brazilian reais, e.g. "R$ 1.234,50" or "-R$ 5,00".
func FormatBRL(m Money) string {
	rounded := RoundDisplay(m)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	fixed := rounded.StringFixed(MoneyPlaces)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	return sign + "R$ " + b.String() + "," + frac
}
