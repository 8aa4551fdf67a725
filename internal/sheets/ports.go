package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"expensetracker/internal/core"
)

// DefaultTitle is the title the backing document is found and created by.
const DefaultTitle = "Expense Tracker"

// Header is the first row of every month sheet.
var Header = []string{"Date", "Category", "Amount", "Note"}

// Resolution is the outcome of EnsureDocument.
type Resolution struct {
	ID string
	// Persist is set when the id did not come from the caller's cache and
	// has to be stored.
	Persist bool
	Created bool
}

// Ports for outbound adapters.
type (
	DocumentProvisioner interface {
		// EnsureDocument validates cachedID, or finds the document by title, or
		// creates it with a sheet for the current month.
		EnsureDocument(ctx context.Context, cachedID string) (Resolution, error)
		// EnsureMonthSheet adds the month sheet and its header when missing.
		// Existence is checked against the live document on every call.
		EnsureMonthSheet(ctx context.Context, documentID string, month core.MonthKey) error
	}

	RowWriter interface {
		// AppendRow ensures the row's month sheet, then appends the row.
		AppendRow(ctx context.Context, documentID string, row core.Expense) error
	}

	RowReader interface {
		// ReadRows returns the month's rows in append order. A month without a
		// sheet yields an empty list and no error.
		ReadRows(ctx context.Context, documentID string, month core.MonthKey) ([]core.Expense, error)
		// ListAvailableMonths returns month keys that have a sheet, newest first.
		ListAvailableMonths(ctx context.Context, documentID string) ([]core.MonthKey, error)
	}

	// Backend is a document store bound to one bearer token.
	Backend interface {
		DocumentProvisioner
		RowWriter
		RowReader
	}

	// Connector binds a Backend to a bearer token.
	Connector interface {
		Connect(ctx context.Context, token string) (Backend, error)
	}
)

var ErrNoToken = errors.New("no bearer token")

// ProviderError is a non-success answer from the document provider.
type ProviderError struct {
	Op      string // e.g. "create spreadsheet"
	Status  int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("failed to %s: %d", e.Op, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	return "failed to " + e.Op
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsNotFound reports a missing document or sheet. Bad-range answers count:
// that is how the provider reports a range on a sheet that does not exist.
func IsNotFound(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Status == http.StatusNotFound || pe.Status == http.StatusBadRequest
}
