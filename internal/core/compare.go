package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Compare builds the category comparison table between the current month's
// rows and the rows of each comparison month.
//
// For every category seen anywhere the row carries the current total, the
// total per comparison month, their arithmetic mean, current minus mean and
// the rounded percentage change. A zero mean maps to +100% when the current
// total is positive and 0% otherwise. Categories that are zero on both sides
// are dropped. Rows come back largest absolute change first.
func Compare(current []Expense, compares map[MonthKey][]Expense, months []MonthKey) []ComparisonRow {
	if len(months) == 0 {
		return nil
	}

	currentSums, order := SumByCategory(current)
	seen := map[Category]struct{}{}
	for _, c := range order {
		seen[c] = struct{}{}
	}

	monthSums := make([]map[Category]Rupiah, len(months))
	for i, m := range months {
		sums, cats := SumByCategory(compares[m])
		monthSums[i] = sums
		for _, c := range cats {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				order = append(order, c)
			}
		}
	}

	n := decimal.NewFromInt(int64(len(months)))
	rows := make([]ComparisonRow, 0, len(order))
	for _, c := range order {
		row := ComparisonRow{Category: c, Current: currentSums[c]}
		var sum Rupiah
		for i, m := range months {
			v := monthSums[i][c]
			row.ByMonth = append(row.ByMonth, MonthAmount{Month: m, Amount: v})
			sum += v
		}
		row.Mean = decimal.NewFromInt(int64(sum)).Div(n)
		row.Diff = decimal.NewFromInt(int64(row.Current)).Sub(row.Mean)
		row.Percent = percentChange(row.Current, row.Mean, row.Diff)

		if row.Current == 0 && row.Mean.IsZero() {
			continue
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return abs(rows[i].Percent) > abs(rows[j].Percent)
	})
	return rows
}

// percentChange rounds halves toward positive infinity.
func percentChange(current Rupiah, mean, diff decimal.Decimal) int64 {
	if mean.IsZero() {
		if current > 0 {
			return 100
		}
		return 0
	}
	pct := diff.Div(mean).Mul(hundred)
	return pct.Add(decimal.NewFromFloat(0.5)).Floor().IntPart()
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
