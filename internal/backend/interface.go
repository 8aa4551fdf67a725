package backend

import (
	"context"
	"time"

	"expensetracker/internal/session"
	"expensetracker/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the connector, the identity provider loader that
// issues tokens it accepts, and an optional cleanup function
type BackendResult struct {
	Connector sheets.Connector
	Loader    session.Loader
	Cleanup   CleanupFunc
}

// Factory creates connectors based on configuration
type Factory interface {
	CreateConnector(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Title of the backing document
	SpreadsheetTitle string

	// Sheets backend specific
	OAuthClientJSON   string
	OAuthClientFile   string
	OAuthRedirectPort int
	OAuthTimeout      time.Duration
	// Prompt receives the consent URL; nil prints it on stderr
	Prompt func(authURL string)

	// Memory backend specific
	SeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
