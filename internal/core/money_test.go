package core

import "testing"

func TestRupiahString(t *testing.T) {
	cases := []struct {
		in   Rupiah
		want string
	}{
		{0, "Rp0"},
		{5, "Rp5"},
		{999, "Rp999"},
		{1000, "Rp1.000"},
		{25500, "Rp25.500"},
		{120000, "Rp120.000"},
		{1234567, "Rp1.234.567"},
		{-30000, "-Rp30.000"},
	}
	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Fatalf("%d expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestParseAmountInput(t *testing.T) {
	cases := []struct {
		in  string
		out Rupiah
		ok  bool
	}{
		{"120000", 120000, true},
		{"120.000", 120000, true},
		{"Rp 120,000", 120000, true},
		{" 15 000 ", 15000, true},
		{"0", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"9999999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmountInput(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseCellAmount(t *testing.T) {
	cases := []struct {
		in  string
		out Rupiah
	}{
		{"120000", 120000},
		{"2500.6", 2501},
		{"", 0},
		{"n/a", 0},
		{"Rp 5.000", 0},
	}
	for _, tc := range cases {
		if got := ParseCellAmount(tc.in); got != tc.out {
			t.Fatalf("%q expected %d, got %d", tc.in, tc.out, got)
		}
	}
}
