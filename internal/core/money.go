// Package core provides the expense data model and the pure functions that
// derive totals, groups and month comparisons from it.
package core

import (
	"strconv"
	"strings"
)

// Rupiah is an amount in whole currency units. There are no sub-units.
type Rupiah int64

// String renders the amount the way the dashboard shows it: "Rp" followed by
// the integer with "." thousands separators, e.g. Rp120.000.
func (r Rupiah) String() string {
	n := int64(r)
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("Rp")
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseAmountInput converts form input to an amount. Every non-digit rune is
// dropped first, so "Rp 120.000", "120,000" and "120000" are the same amount.
// Empty or zero input is rejected.
func ParseAmountInput(s string) (Rupiah, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow on absurdly long input
	if len(digits) > 18 {
		return 0, ErrInvalidAmount
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidAmount
	}
	return Rupiah(n), nil
}

// ParseCellAmount is the lenient conversion used for cells read back from a
// sheet: anything that is not a number becomes zero.
func ParseCellAmount(s string) Rupiah {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Rupiah(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return RupiahFromFloat(f)
	}
	return 0
}

// RupiahFromFloat rounds a numeric cell value half away from zero.
func RupiahFromFloat(f float64) Rupiah {
	if f < 0 {
		return -Rupiah(-f + 0.5)
	}
	return Rupiah(f + 0.5)
}
