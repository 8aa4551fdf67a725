package core

import "github.com/shopspring/decimal"

// CategoryGroup is one partition of a month's rows.
type CategoryGroup struct {
	Category Category
	Items    []Expense
	Subtotal Rupiah
	Count    int
}

// MonthAmount is a category total for one comparison month.
type MonthAmount struct {
	Month  MonthKey
	Amount Rupiah
}

// ComparisonRow compares one category of the selected month against the mean
// of the comparison months.
type ComparisonRow struct {
	Category Category
	Current  Rupiah
	ByMonth  []MonthAmount
	Mean     decimal.Decimal
	Diff     decimal.Decimal
	Percent  int64
}
