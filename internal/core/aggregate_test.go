package core

import (
	"reflect"
	"testing"
	"time"
)

func sampleRows() []Expense {
	return []Expense{
		{Date: "2025-01-03", Category: FoodAndDrink, Amount: 25000, Note: "soto"},
		{Date: "2025-01-10", Category: Transportation, Amount: 15000},
		{Date: "2025-01-10", Category: FoodAndDrink, Amount: 40000, Note: "dinner"},
		{Date: "2025-01-01", Category: Shopping, Amount: 120000},
		{Date: "2025-01-07", Category: "Donasi", Amount: 5000},
	}
}

func TestTotal(t *testing.T) {
	if got := Total(nil); got != 0 || got.String() != "Rp0" {
		t.Fatalf("empty total: got %v", got)
	}
	if got := Total(sampleRows()); got != 205000 {
		t.Fatalf("expected 205000, got %d", got)
	}
}

func TestFilterByCategoryAllKeepsContent(t *testing.T) {
	rows := sampleRows()
	for _, sel := range []Category{CategoryAll, ""} {
		got := FilterByCategory(rows, sel)
		if !reflect.DeepEqual(got, rows) {
			t.Fatalf("selector %q changed content: %v", sel, got)
		}
		got[0].Note = "changed"
		if rows[0].Note == "changed" {
			t.Fatalf("selector %q returned an alias of the input", sel)
		}
	}
}

func TestFilterByCategory(t *testing.T) {
	got := FilterByCategory(sampleRows(), FoodAndDrink)
	if len(got) != 2 || Total(got) != 65000 {
		t.Fatalf("unexpected filter result: %v", got)
	}
	if got := FilterByCategory(sampleRows(), Health); len(got) != 0 {
		t.Fatalf("expected no rows, got %v", got)
	}
}

func TestSortByDateDescIsStable(t *testing.T) {
	got := SortByDateDesc(sampleRows())
	var dates []string
	for _, r := range got {
		dates = append(dates, r.Date)
	}
	want := []string{"2025-01-10", "2025-01-10", "2025-01-07", "2025-01-03", "2025-01-01"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("expected %v, got %v", want, dates)
	}
	if got[0].Category != Transportation || got[1].Category != FoodAndDrink {
		t.Fatalf("rows sharing a date must keep append order: %v", got[:2])
	}
}

func TestGroupByCategoryIsPartition(t *testing.T) {
	rows := sampleRows()
	groups := GroupByCategory(rows)

	var count int
	var sum Rupiah
	for i, g := range groups {
		if i > 0 && groups[i-1].Category >= g.Category {
			t.Fatalf("groups not ascending: %q then %q", groups[i-1].Category, g.Category)
		}
		if g.Count != len(g.Items) || g.Subtotal != Total(g.Items) {
			t.Fatalf("group %q has inconsistent count/subtotal", g.Category)
		}
		for j, it := range g.Items {
			if it.Category != g.Category {
				t.Fatalf("row %v in wrong group %q", it, g.Category)
			}
			if j > 0 && g.Items[j-1].Date < it.Date {
				t.Fatalf("group %q items not date descending", g.Category)
			}
		}
		count += g.Count
		sum += g.Subtotal
	}
	if count != len(rows) || sum != Total(rows) {
		t.Fatalf("groups are not a partition: count=%d sum=%d", count, sum)
	}
	if len(groups) != 4 || groups[0].Category != Shopping {
		t.Fatalf("unexpected groups: %+v", groups)
	}
}

func keys(ss ...string) []MonthKey {
	out := make([]MonthKey, 0, len(ss))
	for _, s := range ss {
		k, err := ParseMonthKey(s)
		if err != nil {
			panic(err)
		}
		out = append(out, k)
	}
	return out
}

func TestComparisonMonthOptions(t *testing.T) {
	cases := []struct {
		name     string
		selected string
		now      time.Time
		want     []MonthKey
	}{
		{
			name:     "clamped at current month",
			selected: "2025-02",
			now:      time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			want:     keys("2024-11", "2024-12", "2025-01", "2025-03"),
		},
		{
			name:     "selected is current month",
			selected: "2025-03",
			now:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			want:     keys("2024-12", "2025-01", "2025-02"),
		},
		{
			name:     "full window",
			selected: "2024-06",
			now:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			want:     keys("2024-03", "2024-04", "2024-05", "2024-07", "2024-08", "2024-09"),
		},
	}
	for _, tc := range cases {
		sel, _ := ParseMonthKey(tc.selected)
		got := ComparisonMonthOptions(sel, tc.now)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
		for _, m := range got {
			if m == sel {
				t.Fatalf("%s: selected month offered", tc.name)
			}
		}
	}
}

func TestDefaultComparisonMonths(t *testing.T) {
	sel := keys("2025-02")[0]
	if got := DefaultComparisonMonths(sel, keys("2024-11", "2024-12", "2025-01", "2025-03")); !reflect.DeepEqual(got, keys("2025-01")) {
		t.Fatalf("expected previous month, got %v", got)
	}
	if got := DefaultComparisonMonths(sel, keys("2025-03")); !reflect.DeepEqual(got, keys("2025-03")) {
		t.Fatalf("expected first option, got %v", got)
	}
	if got := DefaultComparisonMonths(sel, nil); got != nil {
		t.Fatalf("expected nothing, got %v", got)
	}
}

func TestNavigationMonths(t *testing.T) {
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	got := NavigationMonths(keys("2023-05", "2025-03", "2025-01"), now)
	if len(got) != 14 {
		t.Fatalf("expected 14 months, got %d: %v", len(got), got)
	}
	if got[0].String() != "2025-03" || got[12].String() != "2024-03" || got[13].String() != "2023-05" {
		t.Fatalf("unexpected order: %v", got)
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].After(got[i]) {
			t.Fatalf("not strictly descending at %d: %v", i, got)
		}
	}
}

func TestCanGoNext(t *testing.T) {
	now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	if CanGoNext(keys("2025-03")[0], now) {
		t.Fatalf("must not move past the current month")
	}
	if !CanGoNext(keys("2025-02")[0], now) {
		t.Fatalf("expected next allowed")
	}
}
