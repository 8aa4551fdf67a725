package google

import (
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/api/googleapi"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

// parseRows converts a values matrix into rows. The first row is the header
// and is dropped whenever there is more than one row; rows with fewer than
// three cells are skipped.
func parseRows(values [][]any) []core.Expense {
	out := []core.Expense{}
	if len(values) <= 1 {
		return out
	}
	for _, raw := range values[1:] {
		if len(raw) < 3 {
			continue
		}
		e := core.Expense{
			Date:     cellString(raw[0]),
			Category: core.Category(cellString(raw[1])),
			Amount:   cellAmount(raw[2]),
		}
		if len(raw) > 3 {
			e.Note = cellString(raw[3])
		}
		out = append(out, e)
	}
	return out
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// cellAmount is lenient: anything that is not a number is zero.
func cellAmount(v any) core.Rupiah {
	switch x := v.(type) {
	case float64:
		return core.RupiahFromFloat(x)
	case int64:
		return core.Rupiah(x)
	case int:
		return core.Rupiah(x)
	case string:
		return core.ParseCellAmount(x)
	}
	return 0
}

func monthKeys(titles []string) []core.MonthKey {
	out := make([]core.MonthKey, 0, len(titles))
	for _, t := range titles {
		if k, err := core.ParseMonthKey(t); err == nil {
			out = append(out, k)
		}
	}
	core.SortMonthsDesc(out)
	return out
}

// providerError maps a Google API failure into a ports.ProviderError that
// carries the provider's own message when it sent one.
func providerError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &ports.ProviderError{Op: op, Status: gerr.Code, Message: gerr.Message, Err: err}
	}
	return &ports.ProviderError{Op: op, Err: err}
}
