package core

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"
)

func TestMonthOfIsZeroPaddedAndMonotonic(t *testing.T) {
	re := regexp.MustCompile(`^\d{4}-\d{2}$`)
	start := time.Date(1999, 11, 28, 0, 0, 0, 0, time.UTC)
	prev := MonthOf(start)
	for d := 0; d < 800; d += 3 {
		day := start.AddDate(0, 0, d)
		k := MonthOf(day)
		s := k.String()
		if len(s) != 7 || !re.MatchString(s) {
			t.Fatalf("bad key %q for %s", s, day)
		}
		if k.Before(prev) {
			t.Fatalf("month keys went backwards: %s then %s", prev, k)
		}
		if s < prev.String() {
			t.Fatalf("string order disagrees with calendar order: %s then %s", prev, s)
		}
		prev = k
	}
}

func TestParseMonthKey(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-01", true},
		{"2025-12", true},
		{"2025-1", false},
		{"2025-13", false},
		{"2025-00", false},
		{"Sheet1", false},
		{" 2025-01", false},
	}
	for _, tc := range cases {
		k, err := ParseMonthKey(tc.in)
		if tc.ok && (err != nil || k.String() != tc.in) {
			t.Fatalf("%q expected ok, got %v (err=%v)", tc.in, k, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestAddMonthsCrossesYears(t *testing.T) {
	k := MonthKey{Year: 2025, Month: time.January}
	if got := k.Prev().String(); got != "2024-12" {
		t.Fatalf("prev: got %s", got)
	}
	if got := k.AddMonths(-13).String(); got != "2023-12" {
		t.Fatalf("-13: got %s", got)
	}
	if got := (MonthKey{Year: 2025, Month: time.December}).Next().String(); got != "2026-01" {
		t.Fatalf("next: got %s", got)
	}
}

func TestMonthKeyJSON(t *testing.T) {
	b, err := json.Marshal(map[string]MonthKey{"m": {Year: 2025, Month: time.March}})
	if err != nil || string(b) != `{"m":"2025-03"}` {
		t.Fatalf("marshal: %s (err=%v)", b, err)
	}
	var out struct{ M MonthKey }
	if err := json.Unmarshal([]byte(`{"M":"2024-07"}`), &out); err != nil || out.M.String() != "2024-07" {
		t.Fatalf("unmarshal: %v (err=%v)", out.M, err)
	}
	if err := json.Unmarshal([]byte(`{"M":"July"}`), &out); err == nil {
		t.Fatalf("expected error for malformed key")
	}
}
