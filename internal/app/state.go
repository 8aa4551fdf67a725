package app

import (
	"slices"
	"time"

	"expensetracker/internal/core"
)

// ComparisonState is the comparison dialog.
type ComparisonState struct {
	Open    bool
	Months  []core.MonthKey
	Rows    []core.ComparisonRow
	Loading bool
}

// State is the dashboard view model. It has a single writer, the view that
// owns it, and does no I/O.
type State struct {
	now func() time.Time

	Selected  core.MonthKey
	Rows      []core.Expense
	Available []core.MonthKey
	Loading   bool
	Banner    string
	Filter    core.Category
	Grouped   bool

	Comparison ComparisonState
}

func NewState(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{
		now:      now,
		Selected: core.MonthOf(now()),
		Filter:   core.CategoryAll,
	}
}

// Select moves the cursor to m and marks it loading. Months after the
// current calendar month are refused.
func (s *State) Select(m core.MonthKey) bool {
	if m.After(core.MonthOf(s.now())) {
		return false
	}
	if m != s.Selected {
		s.Rows = nil
		s.Comparison = ComparisonState{}
	}
	s.Selected = m
	s.Loading = true
	return true
}

// Prev selects the previous month and returns it.
func (s *State) Prev() core.MonthKey {
	m := s.Selected.Prev()
	s.Select(m)
	return m
}

// Next selects the following month unless that passes the current month.
func (s *State) Next() (core.MonthKey, bool) {
	if !core.CanGoNext(s.Selected, s.now()) {
		return s.Selected, false
	}
	m := s.Selected.Next()
	return m, s.Select(m)
}

func (s *State) CanGoNext() bool {
	return core.CanGoNext(s.Selected, s.now())
}

// ApplyMonth applies a finished load. The available months are always
// taken; rows and errors only when the load is for the selected month.
// It reports whether the load was current.
func (s *State) ApplyMonth(data MonthData, err error) bool {
	if data.Available != nil {
		s.Available = data.Available
	}
	if data.Month != s.Selected {
		return false
	}
	s.Loading = false
	if err != nil {
		s.Rows = nil
		s.Banner = err.Error()
		return true
	}
	s.Rows = data.Rows
	s.Banner = ""
	return true
}

// ApplyAdded handles the result of an add. On success the cursor jumps to
// the row's month, which the caller then reloads.
func (s *State) ApplyAdded(month core.MonthKey, err error) bool {
	if err != nil {
		s.Banner = err.Error()
		return false
	}
	s.Banner = ""
	if !s.Select(month) {
		// a future-dated row still lands in its sheet; the cursor stays put
		s.Loading = true
	}
	return true
}

// SetError shows err on the banner. A nil err clears it.
func (s *State) SetError(err error) {
	if err == nil {
		s.Banner = ""
		return
	}
	s.Banner = err.Error()
	s.Loading = false
}

func (s *State) ClearError() { s.Banner = "" }

func (s *State) SetFilter(c core.Category) {
	if c == "" {
		c = core.CategoryAll
	}
	s.Filter = c
}

// CycleFilter steps through all, then each category in display order.
func (s *State) CycleFilter() core.Category {
	cats := core.Categories()
	if s.Filter == core.CategoryAll {
		s.Filter = cats[0]
		return s.Filter
	}
	i := slices.Index(cats, s.Filter)
	if i < 0 || i == len(cats)-1 {
		s.Filter = core.CategoryAll
	} else {
		s.Filter = cats[i+1]
	}
	return s.Filter
}

func (s *State) ToggleGrouped() { s.Grouped = !s.Grouped }

// Total is the month total regardless of the filter.
func (s *State) Total() core.Rupiah { return core.Total(s.Rows) }

func (s *State) Filtered() []core.Expense { return core.FilterByCategory(s.Rows, s.Filter) }

func (s *State) FilteredTotal() core.Rupiah { return core.Total(s.Filtered()) }

func (s *State) Groups() []core.CategoryGroup { return core.GroupByCategory(s.Filtered()) }

// TableRows is the flat list, newest first.
func (s *State) TableRows() []core.Expense { return core.SortByDateDesc(s.Filtered()) }

func (s *State) NavigationMonths() []core.MonthKey {
	return core.NavigationMonths(s.Available, s.now())
}

// EmptyState reports a loaded month with nothing to show and no error.
func (s *State) EmptyState() bool {
	return !s.Loading && s.Banner == "" && len(s.Filtered()) == 0
}

func (s *State) ComparisonOptions() []core.MonthKey {
	return core.ComparisonMonthOptions(s.Selected, s.now())
}

// OpenComparison opens the dialog with the default selection and returns
// the months to load.
func (s *State) OpenComparison() []core.MonthKey {
	months := core.DefaultComparisonMonths(s.Selected, s.ComparisonOptions())
	s.Comparison = ComparisonState{Open: true, Months: months, Loading: len(months) > 0}
	return months
}

// SetComparisonMonths replaces the chosen months, keeping only valid
// options, ascending. It returns the months to load.
func (s *State) SetComparisonMonths(months []core.MonthKey) []core.MonthKey {
	options := s.ComparisonOptions()
	var chosen []core.MonthKey
	for _, m := range months {
		if slices.Contains(options, m) && !slices.Contains(chosen, m) {
			chosen = append(chosen, m)
		}
	}
	core.SortMonthsAsc(chosen)
	s.Comparison.Months = chosen
	s.Comparison.Rows = nil
	s.Comparison.Loading = len(chosen) > 0
	return chosen
}

func (s *State) CloseComparison() { s.Comparison = ComparisonState{} }

// ApplyComparison applies a finished comparison load unless the dialog was
// closed or its month selection changed meanwhile.
func (s *State) ApplyComparison(data ComparisonData, err error) bool {
	if !s.Comparison.Open || data.Current != s.Selected || !slices.Equal(data.Months, s.Comparison.Months) {
		return false
	}
	s.Comparison.Loading = false
	if err != nil {
		s.Comparison.Rows = nil
		s.Banner = err.Error()
		return true
	}
	s.Comparison.Rows = data.Rows
	s.Banner = ""
	return true
}
