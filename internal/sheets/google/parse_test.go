package google

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

func TestParseRowsHeaderHandling(t *testing.T) {
	cases := []struct {
		name   string
		values [][]any
		want   int
	}{
		{"nil", nil, 0},
		{"header only", [][]any{{"Date", "Category", "Amount", "Note"}}, 0},
		{"one row", [][]any{{"Date", "Category", "Amount", "Note"}, {"2025-01-01", "Belanja", 1.0}}, 1},
		{"short rows skipped", [][]any{{"h"}, {"2025-01-01"}, {"2025-01-01", "Belanja"}, {"2025-01-01", "Belanja", 2.0, "x"}}, 1},
	}
	for _, tc := range cases {
		got := parseRows(tc.values)
		if got == nil || len(got) != tc.want {
			t.Fatalf("%s: expected %d rows, got %#v", tc.name, tc.want, got)
		}
	}
}

func TestCellAmount(t *testing.T) {
	cases := []struct {
		in   any
		want core.Rupiah
	}{
		{25000.0, 25000},
		{2500.5, 2501},
		{"7000", 7000},
		{"", 0},
		{"abc", 0},
		{true, 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := cellAmount(tc.in); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestCellString(t *testing.T) {
	if cellString(45678.0) != "45678" || cellString(nil) != "" || cellString("x") != "x" {
		t.Fatalf("unexpected cell conversions")
	}
}

func TestProviderErrorMapping(t *testing.T) {
	gerr := &googleapi.Error{Code: 403, Message: "The caller does not have permission"}
	err := providerError("add sheet", fmt.Errorf("wrapped: %w", gerr))
	var pe *ports.ProviderError
	if !errors.As(err, &pe) || pe.Status != 403 || err.Error() != "The caller does not have permission" {
		t.Fatalf("unexpected mapping: %v", err)
	}

	err = providerError("add sheet", &googleapi.Error{Code: 502})
	if err.Error() != "failed to add sheet: 502" {
		t.Fatalf("expected generic message, got %q", err.Error())
	}
}

func TestA1Quoting(t *testing.T) {
	if got := a1("2025-01", "A:D"); got != "'2025-01'!A:D" {
		t.Fatalf("got %s", got)
	}
	if got := a1("it's", "A1"); got != "'it''s'!A1" {
		t.Fatalf("got %s", got)
	}
}
