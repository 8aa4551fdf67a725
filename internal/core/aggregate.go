package core

import (
	"sort"
	"time"
)

// Total sums the amounts of rows.
func Total(rows []Expense) Rupiah {
	var sum Rupiah
	for _, r := range rows {
		sum += r.Amount
	}
	return sum
}

// FilterByCategory keeps rows of the selected category. CategoryAll (or an
// empty selector) keeps every row. The result never aliases rows.
func FilterByCategory(rows []Expense, selector Category) []Expense {
	if selector == "" || selector == CategoryAll {
		return append([]Expense(nil), rows...)
	}
	out := make([]Expense, 0, len(rows))
	for _, r := range rows {
		if r.Category == selector {
			out = append(out, r)
		}
	}
	return out
}

// SortByDateDesc returns rows ordered newest date first. Rows sharing a date
// keep their append order.
func SortByDateDesc(rows []Expense) []Expense {
	out := append([]Expense(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// GroupByCategory partitions rows by category. Groups are ordered by category
// name, items inside a group by date descending.
func GroupByCategory(rows []Expense) []CategoryGroup {
	index := map[Category]int{}
	var groups []CategoryGroup
	for _, r := range rows {
		i, ok := index[r.Category]
		if !ok {
			i = len(groups)
			index[r.Category] = i
			groups = append(groups, CategoryGroup{Category: r.Category})
		}
		groups[i].Items = append(groups[i].Items, r)
	}
	for i := range groups {
		groups[i].Items = SortByDateDesc(groups[i].Items)
		groups[i].Subtotal = Total(groups[i].Items)
		groups[i].Count = len(groups[i].Items)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Category < groups[j].Category
	})
	return groups
}

// SumByCategory totals rows per category and also returns categories in the
// order they were first seen.
func SumByCategory(rows []Expense) (map[Category]Rupiah, []Category) {
	sums := map[Category]Rupiah{}
	var order []Category
	for _, r := range rows {
		if _, ok := sums[r.Category]; !ok {
			order = append(order, r.Category)
		}
		sums[r.Category] += r.Amount
	}
	return sums, order
}

// ComparisonMonthOptions lists the months that may be compared against
// selected: up to three before and three after, where "after" never passes the
// calendar month of now. selected itself is never offered. Ascending order.
func ComparisonMonthOptions(selected MonthKey, now time.Time) []MonthKey {
	current := MonthOf(now)
	var out []MonthKey
	for i := 3; i >= 1; i-- {
		out = append(out, selected.AddMonths(-i))
	}
	for i := 1; i <= 3; i++ {
		m := selected.AddMonths(i)
		if m.After(current) {
			break
		}
		out = append(out, m)
	}
	return out
}

// DefaultComparisonMonths picks the initial comparison selection: the month
// before selected when it is an option, otherwise the first option.
func DefaultComparisonMonths(selected MonthKey, options []MonthKey) []MonthKey {
	prev := selected.Prev()
	for _, o := range options {
		if o == prev {
			return []MonthKey{prev}
		}
	}
	if len(options) > 0 {
		return []MonthKey{options[0]}
	}
	return nil
}

// NavigationMonths is the month picker content: every month that has a sheet
// plus the twelve months before now and now itself, newest first.
func NavigationMonths(available []MonthKey, now time.Time) []MonthKey {
	seen := map[MonthKey]struct{}{}
	var out []MonthKey
	add := func(m MonthKey) {
		if _, ok := seen[m]; ok {
			return
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	for _, m := range available {
		add(m)
	}
	current := MonthOf(now)
	for i := 0; i <= 12; i++ {
		add(current.AddMonths(-i))
	}
	SortMonthsDesc(out)
	return out
}

// CanGoNext reports whether navigation may move past selected. The cursor
// never goes beyond the current calendar month.
func CanGoNext(selected MonthKey, now time.Time) bool {
	return selected.Before(MonthOf(now))
}

// SortMonthsDesc sorts keys most recent first, in place.
func SortMonthsDesc(keys []MonthKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].After(keys[j]) })
}

// SortMonthsAsc sorts keys oldest first, in place.
func SortMonthsAsc(keys []MonthKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
}
