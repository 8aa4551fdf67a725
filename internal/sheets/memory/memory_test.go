package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

var now = func() time.Time { return time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC) }

func month(t *testing.T, s string) core.MonthKey {
	t.Helper()
	k, err := core.ParseMonthKey(s)
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEnsureDocument(t *testing.T) {
	ctx := context.Background()
	s := New("", now)

	first, err := s.EnsureDocument(ctx, "")
	if err != nil || !first.Created || !first.Persist {
		t.Fatalf("expected creation, got %+v err=%v", first, err)
	}
	months, _ := s.ListAvailableMonths(ctx, first.ID)
	if len(months) != 1 || months[0].String() != "2025-03" {
		t.Fatalf("new document must hold the current month, got %v", months)
	}

	if again, _ := s.EnsureDocument(ctx, ""); again.ID != first.ID || again.Created {
		t.Fatalf("search must find the same document, got %+v", again)
	}
	if cached, _ := s.EnsureDocument(ctx, first.ID); cached.ID != first.ID || cached.Persist {
		t.Fatalf("cached id must resolve without persisting, got %+v", cached)
	}
	if stale, _ := s.EnsureDocument(ctx, "mem-404"); stale.ID != first.ID || !stale.Persist {
		t.Fatalf("stale id must fall back to search, got %+v", stale)
	}

	s.Delete(first.ID)
	if replaced, _ := s.EnsureDocument(ctx, first.ID); replaced.ID == first.ID || !replaced.Created {
		t.Fatalf("deleted document must be recreated, got %+v", replaced)
	}
}

func TestAppendThenRead(t *testing.T) {
	ctx := context.Background()
	s := New("", now)
	res, _ := s.EnsureDocument(ctx, "")

	row := core.Expense{Date: "2024-12-24", Category: core.Shopping, Amount: 300000, Note: "gifts"}
	if err := s.AppendRow(ctx, res.ID, row); err != nil {
		t.Fatalf("append: %v", err)
	}
	rows, err := s.ReadRows(ctx, res.ID, month(t, "2024-12"))
	if err != nil || len(rows) != 1 || rows[0] != row {
		t.Fatalf("row missing: %+v err=%v", rows, err)
	}

	rows[0].Note = "mutated"
	again, _ := s.ReadRows(ctx, res.ID, month(t, "2024-12"))
	if again[0].Note != "gifts" {
		t.Fatalf("ReadRows must return a copy")
	}
}

func TestReadRowsNotFoundIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := New("", now)
	res, _ := s.EnsureDocument(ctx, "")

	rows, err := s.ReadRows(ctx, res.ID, month(t, "2020-01"))
	if err != nil || rows == nil || len(rows) != 0 {
		t.Fatalf("missing sheet: %#v err=%v", rows, err)
	}
	rows, err = s.ReadRows(ctx, "no-such-doc", month(t, "2020-01"))
	if err != nil || len(rows) != 0 {
		t.Fatalf("missing document: %#v err=%v", rows, err)
	}
}

func TestEnsureMonthSheetUnknownDocument(t *testing.T) {
	err := New("", now).EnsureMonthSheet(context.Background(), "nope", month(t, "2025-01"))
	var pe *ports.ProviderError
	if !errors.As(err, &pe) || pe.Status != 404 {
		t.Fatalf("expected 404 provider error, got %v", err)
	}
}

func TestListAvailableMonthsFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s := New("", now)
	res, _ := s.EnsureDocument(ctx, "")
	s.AddSheet(res.ID, "Sheet1")
	s.EnsureMonthSheet(ctx, res.ID, month(t, "2024-01"))
	s.EnsureMonthSheet(ctx, res.ID, month(t, "2025-01"))
	s.EnsureMonthSheet(ctx, res.ID, month(t, "2025-01"))

	got, _ := s.ListAvailableMonths(ctx, res.ID)
	var names []string
	for _, k := range got {
		names = append(names, k.String())
	}
	if strings.Join(names, ",") != "2025-03,2025-01,2024-01" {
		t.Fatalf("unexpected months %v", names)
	}
}

func TestConnect(t *testing.T) {
	s := New("", now)
	if _, err := s.Connect(context.Background(), ""); !errors.Is(err, ports.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if b, err := s.Connect(context.Background(), "tok"); err != nil || b == nil {
		t.Fatalf("connect: %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	if s, err := NewFromFile("", now, filepath.Join(dir, "missing.csv")); err != nil || len(s.docs) != 0 {
		t.Fatalf("missing seed file must give an empty store: %v", err)
	}

	path := filepath.Join(dir, "seed.csv")
	content := "# date,category,amount,note\n2025-02-01,Belanja,50.000,shoes\n\n2025-02-03, transportasi ,15000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFromFile("", now, path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, _ := s.EnsureDocument(context.Background(), "")
	rows, _ := s.ReadRows(context.Background(), res.ID, month(t, "2025-02"))
	if len(rows) != 2 || rows[0].Amount != 50000 || rows[1].Category != core.Transportation {
		t.Fatalf("unexpected seeded rows %+v", rows)
	}

	if err := os.WriteFile(path, []byte("2025-02-01,Pets,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile("", now, path); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}
