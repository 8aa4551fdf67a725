package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expensetracker/internal/session"
	gsession "expensetracker/internal/session/google"
	"expensetracker/internal/sheets/google"
	"expensetracker/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, now: time.Now}
}

// CreateConnector implements Factory.CreateConnector
func (f *DefaultFactory) CreateConnector(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsBackend:
		return f.createSheetsConnector(config), nil
	case MemoryBackend:
		return f.createMemoryConnector(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsConnector(config Config) *BackendResult {
	f.logger.Info("Initialized Google Sheets backend", "title", config.SpreadsheetTitle)
	return &BackendResult{
		Connector: &google.Connector{
			Title:  config.SpreadsheetTitle,
			Now:    f.now,
			Logger: f.logger,
		},
		Loader: f.googleLoader(config),
	}
}

// googleLoader reads the OAuth client lazily so a missing client file
// surfaces as a sign-in failure rather than a startup one.
func (f *DefaultFactory) googleLoader(config Config) session.Loader {
	return func(ctx context.Context) (session.IdentityProvider, error) {
		clientJSON, err := gsession.LoadClientJSON(config.OAuthClientJSON, config.OAuthClientFile)
		if err != nil {
			return nil, err
		}
		return gsession.Loader(gsession.Config{
			ClientJSON:   clientJSON,
			RedirectPort: config.OAuthRedirectPort,
			Timeout:      config.OAuthTimeout,
			Prompt:       config.Prompt,
			Logger:       f.logger,
		})(ctx)
	}
}

func (f *DefaultFactory) createMemoryConnector(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.SpreadsheetTitle, f.now, config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
	return &BackendResult{
		Connector: store,
		Loader:    session.LocalLoader(session.LocalProvider{}),
	}, nil
}

var _ Factory = (*DefaultFactory)(nil)
