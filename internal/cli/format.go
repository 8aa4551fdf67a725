package cli

import (
	"fmt"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// FormatPercent renders a change with an explicit sign: +33%, -1%, 0%.
func FormatPercent(p int64) string {
	if p > 0 {
		return fmt.Sprintf("+%d%%", p)
	}
	return fmt.Sprintf("%d%%", p)
}

// FormatDecimalAmount renders a mean or difference rounded to whole units.
func FormatDecimalAmount(d decimal.Decimal) string {
	return core.Rupiah(d.Round(0).IntPart()).String()
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
