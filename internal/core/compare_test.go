package core

import (
	"testing"
)

func rowsOf(cat Category, amounts ...Rupiah) []Expense {
	var out []Expense
	for _, a := range amounts {
		out = append(out, Expense{Date: "2025-01-01", Category: cat, Amount: a})
	}
	return out
}

func TestCompareMeanDiffPercent(t *testing.T) {
	months := keys("2024-12", "2024-11")
	current := rowsOf(FoodAndDrink, 100000, 20000)
	compares := map[MonthKey][]Expense{
		months[0]: rowsOf(FoodAndDrink, 100000),
		months[1]: rowsOf(FoodAndDrink, 50000, 30000),
	}

	rows := Compare(current, compares, months)
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %+v", rows)
	}
	r := rows[0]
	if r.Current != 120000 {
		t.Fatalf("current: got %d", r.Current)
	}
	if r.Mean.IntPart() != 90000 || r.Diff.IntPart() != 30000 {
		t.Fatalf("mean/diff: got %s/%s", r.Mean, r.Diff)
	}
	if r.Percent != 33 {
		t.Fatalf("percent: got %d", r.Percent)
	}
	if len(r.ByMonth) != 2 || r.ByMonth[0].Amount != 100000 || r.ByMonth[1].Amount != 80000 {
		t.Fatalf("by month: got %+v", r.ByMonth)
	}
}

func TestCompareZeroMean(t *testing.T) {
	months := keys("2024-12", "2024-11")
	current := rowsOf(Health, 50000)
	compares := map[MonthKey][]Expense{
		months[0]: rowsOf(Health, 0),
		months[1]: rowsOf(Shopping, 0),
	}

	rows := Compare(current, compares, months)
	byCat := map[Category]ComparisonRow{}
	for _, r := range rows {
		byCat[r.Category] = r
	}
	if r, ok := byCat[Health]; !ok || r.Percent != 100 || !r.Mean.IsZero() {
		t.Fatalf("expected +100%% for zero mean, got %+v", r)
	}
	if _, ok := byCat[Shopping]; ok {
		t.Fatalf("category zero on both sides must be excluded")
	}
}

func TestCompareDecrease(t *testing.T) {
	months := keys("2024-12")
	rows := Compare(nil, map[MonthKey][]Expense{months[0]: rowsOf(Utilities, 40000)}, months)
	if len(rows) != 1 || rows[0].Percent != -100 || rows[0].Current != 0 {
		t.Fatalf("expected -100%%, got %+v", rows)
	}
}

func TestComparePercentRounding(t *testing.T) {
	cases := []struct {
		current, prev Rupiah
		want          int64
	}{
		{1005, 1000, 1},   // 0.5 rounds up
		{995, 1000, 0},    // -0.5 rounds toward +inf
		{1015, 1000, 2},   // 1.5
		{985, 1000, -1},   // -1.5
		{2000, 3000, -33}, // -33.33
		{5, 3, 67},        // 66.67
	}
	months := keys("2024-12")
	for _, tc := range cases {
		rows := Compare(rowsOf(Other, tc.current), map[MonthKey][]Expense{months[0]: rowsOf(Other, tc.prev)}, months)
		if len(rows) != 1 || rows[0].Percent != tc.want {
			t.Fatalf("%d vs %d: expected %d, got %+v", tc.current, tc.prev, tc.want, rows)
		}
	}
}

func TestCompareOrdering(t *testing.T) {
	months := keys("2024-12")
	current := append(append(rowsOf(FoodAndDrink, 110), rowsOf(Transportation, 300)...), rowsOf(Shopping, 90)...)
	compares := map[MonthKey][]Expense{
		months[0]: append(append(rowsOf(FoodAndDrink, 100), rowsOf(Transportation, 100)...), append(rowsOf(Shopping, 100), rowsOf(Entertainment, 50)...)...),
	}
	rows := Compare(current, compares, months)

	var got []Category
	for _, r := range rows {
		got = append(got, r.Category)
	}
	// Transportasi +200, Hiburan -100, then the two 10% moves in first-seen order.
	want := []Category{Transportation, Entertainment, FoodAndDrink, Shopping}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCompareNoMonths(t *testing.T) {
	if rows := Compare(rowsOf(Other, 1), nil, nil); rows != nil {
		t.Fatalf("expected nil, got %+v", rows)
	}
}
