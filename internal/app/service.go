// Package app is the application context shared by the views. Service does
// the I/O against the session and the document backend; State is the view
// model a single view owns and mutates.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/session"
	"expensetracker/internal/sheets"
)

// MonthData is one month load. Month is set even when the load failed so a
// stale failure can be told apart from a current one.
type MonthData struct {
	Month     core.MonthKey
	Rows      []core.Expense
	Available []core.MonthKey
}

// ComparisonData is one comparison load.
type ComparisonData struct {
	Current core.MonthKey
	Months  []core.MonthKey
	Rows    []core.ComparisonRow
}

// Options tunes a Service.
type Options struct {
	Now    func() time.Time
	Logger *slog.Logger
}

// Service resolves the session and the document once per process and runs
// every read and write against them.
type Service struct {
	session   *session.Manager
	connector sheets.Connector
	now       func() time.Time
	log       *slog.Logger

	mu      sync.Mutex
	backend sheets.Backend
	docID   string
}

func NewService(sess *session.Manager, connector sheets.Connector, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		session:   sess,
		connector: connector,
		now:       opts.Now,
		log:       opts.Logger,
	}
}

// Now is the clock the service and its views share.
func (s *Service) Now() time.Time { return s.now() }

// Session exposes the session manager to the views.
func (s *Service) Session() *session.Manager { return s.session }

// Open signs in when needed, binds the backend to the token and resolves the
// document. The result is kept until SignOut.
func (s *Service) Open(ctx context.Context) (string, error) {
	_, id, err := s.open(ctx)
	return id, err
}

func (s *Service) open(ctx context.Context) (sheets.Backend, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend != nil {
		return s.backend, s.docID, nil
	}

	token, err := s.session.EnsureToken(ctx)
	if err != nil {
		return nil, "", err
	}
	backend, err := s.connector.Connect(ctx, token)
	if err != nil {
		return nil, "", fmt.Errorf("connect: %w", err)
	}

	res, err := backend.EnsureDocument(ctx, s.session.DocumentID(ctx))
	if err != nil {
		return nil, "", fmt.Errorf("open document: %w", err)
	}
	if res.Persist {
		if err := s.session.SetDocumentID(ctx, res.ID); err != nil {
			s.log.WarnContext(ctx, "Failed to remember document id", applog.FieldError, err)
		}
	}
	s.log.InfoContext(ctx, "Document ready", applog.FieldDocumentID, res.ID, "created", res.Created)

	s.backend, s.docID = backend, res.ID
	return backend, res.ID, nil
}

// LoadMonth reads the month's rows and the available months concurrently.
func (s *Service) LoadMonth(ctx context.Context, month core.MonthKey) (MonthData, error) {
	data := MonthData{Month: month}
	backend, docID, err := s.open(ctx)
	if err != nil {
		return data, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		months, err := backend.ListAvailableMonths(gctx, docID)
		if err != nil {
			return fmt.Errorf("list months: %w", err)
		}
		data.Available = months
		return nil
	})
	g.Go(func() error {
		rows, err := backend.ReadRows(gctx, docID, month)
		if err != nil {
			return fmt.Errorf("read %s: %w", month, err)
		}
		data.Rows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return MonthData{Month: month}, err
	}
	s.log.DebugContext(ctx, "Month loaded", applog.FieldMonth, month.String(), applog.FieldRows, len(data.Rows))
	return data, nil
}

// AvailableMonths lists the months that have a sheet, newest first.
func (s *Service) AvailableMonths(ctx context.Context) ([]core.MonthKey, error) {
	backend, docID, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	months, err := backend.ListAvailableMonths(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	return months, nil
}

// AddExpense validates and appends row, returning the month it landed in.
// The sheet check and the append run strictly one after the other.
func (s *Service) AddExpense(ctx context.Context, row core.Expense) (core.MonthKey, error) {
	if err := row.Validate(); err != nil {
		return core.MonthKey{}, err
	}
	month, _ := row.Month()

	backend, docID, err := s.open(ctx)
	if err != nil {
		return month, err
	}
	if err := backend.AppendRow(ctx, docID, row); err != nil {
		return month, fmt.Errorf("add expense: %w", err)
	}
	s.log.InfoContext(ctx, "Expense added", applog.FieldMonth, month.String(), applog.FieldCategory, string(row.Category), applog.FieldAmount, int64(row.Amount))
	return month, nil
}

// LoadComparison reads current and every comparison month concurrently and
// runs the comparison.
func (s *Service) LoadComparison(ctx context.Context, current core.MonthKey, months []core.MonthKey) (ComparisonData, error) {
	months = uniqueMonths(months)
	data := ComparisonData{Current: current, Months: months}
	if len(months) == 0 {
		return data, nil
	}
	backend, docID, err := s.open(ctx)
	if err != nil {
		return data, err
	}

	var currentRows []core.Expense
	compareRows := make([][]core.Expense, len(months))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := backend.ReadRows(gctx, docID, current)
		if err != nil {
			return fmt.Errorf("read %s: %w", current, err)
		}
		currentRows = rows
		return nil
	})
	for i, m := range months {
		g.Go(func() error {
			rows, err := backend.ReadRows(gctx, docID, m)
			if err != nil {
				return fmt.Errorf("read %s: %w", m, err)
			}
			compareRows[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ComparisonData{Current: current, Months: data.Months}, err
	}

	byMonth := make(map[core.MonthKey][]core.Expense, len(months))
	for i, m := range months {
		byMonth[m] = compareRows[i]
	}
	data.Rows = core.Compare(currentRows, byMonth, data.Months)
	return data, nil
}

// SignOut clears the session and forgets the bound backend. The document id
// stays stored.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.backend, s.docID = nil, ""
	s.mu.Unlock()
	return s.session.SignOut(ctx)
}

func (s *Service) Profile(ctx context.Context) session.Profile {
	return s.session.Profile(ctx)
}

func (s *Service) IsSignedIn(ctx context.Context) bool {
	return s.session.IsSignedIn(ctx)
}

// uniqueMonths copies months without repeats, keeping first occurrences.
func uniqueMonths(months []core.MonthKey) []core.MonthKey {
	seen := make(map[core.MonthKey]struct{}, len(months))
	out := make([]core.MonthKey, 0, len(months))
	for _, m := range months {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
