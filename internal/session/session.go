// Package session owns the signed-in state: the bearer token, the cached
// profile and the id of the backing document, all kept in a storage.KV.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// Storage keys. The names are shared with earlier releases so existing state
// files keep working.
const (
	KeyAccessToken   = "expense_tracker_access_token"
	KeySpreadsheetID = "expense_tracker_spreadsheet_id"
	KeyUserEmail     = "expense_tracker_user_email"
	KeyUserName      = "expense_tracker_user_name"
	KeyUserPicture   = "expense_tracker_user_picture"
	KeyTheme         = "theme"
)

var (
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrConsentDenied       = errors.New("consent denied")
)

// AuthError is returned by every failed sign-in. Callers treat any AuthError
// as "not authenticated".
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "sign in: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

// Profile is what the identity provider tells us about the user.
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// IdentityProvider is the boundary to the identity service.
type IdentityProvider interface {
	// RequestToken runs the interactive consent flow.
	RequestToken(ctx context.Context) (string, error)
	FetchProfile(ctx context.Context, token string) (Profile, error)
}

// Loader prepares the identity provider. An error means the provider is not
// available for this process.
type Loader func(ctx context.Context) (IdentityProvider, error)

// Manager implements the session operations over a KV store. It is safe for
// concurrent use.
type Manager struct {
	kv  storage.KV
	log *slog.Logger

	started   bool
	ready     chan struct{}
	startOnce sync.Once

	mu         sync.Mutex
	provider   IdentityProvider
	loadErr    error
	lastErr    error
	backfilled bool

	// held for the whole consent flow so concurrent callers do not open two
	// browser prompts
	authMu sync.Mutex
}

func NewManager(kv storage.KV, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{kv: kv, log: logger, ready: make(chan struct{})}
}

// Start runs loader once in the background. Ready is closed when it
// returns, whatever the outcome.
func (m *Manager) Start(ctx context.Context, loader Loader) {
	m.startOnce.Do(func() {
		m.mu.Lock()
		m.started = true
		m.mu.Unlock()

		go func() {
			defer close(m.ready)
			p, err := loader(ctx)
			m.mu.Lock()
			defer m.mu.Unlock()
			if err != nil {
				m.loadErr = err
				m.log.Warn("Identity provider failed to load", applog.FieldError, err)
				return
			}
			if p == nil {
				m.loadErr = errors.New("loader returned no provider")
				return
			}
			m.provider = p
			m.log.Debug("Identity provider ready")
		}()
	})
}

// Ready is closed once the provider load has been attempted.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

func (m *Manager) IsReady() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// IsSignedIn reports whether a token is stored. Storage errors count as
// signed out.
func (m *Manager) IsSignedIn(ctx context.Context) bool {
	tok, _ := m.storedToken(ctx)
	return tok != ""
}

// EnsureToken returns the stored token, or runs the consent flow when there
// is none. On failure the token is "" and the error is an *AuthError.
func (m *Manager) EnsureToken(ctx context.Context) (string, error) {
	if tok, err := m.storedToken(ctx); err != nil {
		return "", m.fail(err)
	} else if tok != "" {
		m.backfillProfile(ctx, tok)
		return tok, nil
	}

	m.authMu.Lock()
	defer m.authMu.Unlock()

	// another caller may have signed in while we waited
	if tok, _ := m.storedToken(ctx); tok != "" {
		return tok, nil
	}

	p, err := m.waitProvider(ctx)
	if err != nil {
		return "", m.fail(err)
	}

	tok, err := p.RequestToken(ctx)
	if err != nil {
		return "", m.fail(err)
	}
	if tok == "" {
		return "", m.fail(ErrConsentDenied)
	}
	if err := m.kv.Set(ctx, KeyAccessToken, tok); err != nil {
		return "", m.fail(fmt.Errorf("store token: %w", err))
	}

	if prof, err := p.FetchProfile(ctx, tok); err != nil {
		m.log.Warn("Profile lookup failed", applog.FieldError, err)
	} else {
		m.storeProfile(ctx, prof)
	}

	m.mu.Lock()
	m.lastErr = nil
	m.backfilled = true
	m.mu.Unlock()
	m.log.Info("Signed in")
	return tok, nil
}

// SignOut forgets the token and profile. The document id is kept so the next
// sign-in reuses the same document.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.kv.Delete(ctx, KeyAccessToken, KeyUserEmail, KeyUserName, KeyUserPicture); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	m.mu.Lock()
	m.backfilled = false
	m.lastErr = nil
	m.mu.Unlock()
	m.log.Info("Signed out")
	return nil
}

// Profile returns the cached profile fields. Missing fields are empty.
func (m *Manager) Profile(ctx context.Context) Profile {
	return Profile{
		Email:   m.get(ctx, KeyUserEmail),
		Name:    m.get(ctx, KeyUserName),
		Picture: m.get(ctx, KeyUserPicture),
	}
}

func (m *Manager) DocumentID(ctx context.Context) string {
	return m.get(ctx, KeySpreadsheetID)
}

func (m *Manager) SetDocumentID(ctx context.Context, id string) error {
	if err := m.kv.Set(ctx, KeySpreadsheetID, id); err != nil {
		return fmt.Errorf("store document id: %w", err)
	}
	return nil
}

// Err returns the last sign-in failure, if it has not been cleared.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) ClearError() {
	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
}

func (m *Manager) waitProvider(ctx context.Context) (IdentityProvider, error) {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if !started {
		return nil, ErrProviderUnavailable
	}

	select {
	case <-m.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.provider == nil {
		if m.loadErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, m.loadErr)
		}
		return nil, ErrProviderUnavailable
	}
	return m.provider, nil
}

// backfillProfile fetches the profile once per session when name and picture
// were never stored. Failures are ignored.
func (m *Manager) backfillProfile(ctx context.Context, tok string) {
	if !m.IsReady() {
		return
	}
	m.mu.Lock()
	p, done := m.provider, m.backfilled
	m.mu.Unlock()
	if p == nil || done {
		return
	}

	prof := m.Profile(ctx)
	if prof.Name != "" || prof.Picture != "" {
		m.mu.Lock()
		m.backfilled = true
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	m.backfilled = true
	m.mu.Unlock()
	fetched, err := p.FetchProfile(ctx, tok)
	if err != nil {
		m.log.Debug("Profile backfill failed", applog.FieldError, err)
		return
	}
	m.storeProfile(ctx, fetched)
}

func (m *Manager) storeProfile(ctx context.Context, p Profile) {
	for key, v := range map[string]string{
		KeyUserEmail:   p.Email,
		KeyUserName:    p.Name,
		KeyUserPicture: p.Picture,
	} {
		if v == "" {
			continue
		}
		if err := m.kv.Set(ctx, key, v); err != nil {
			m.log.Warn("Failed to store profile field", "key", key, applog.FieldError, err)
		}
	}
}

func (m *Manager) storedToken(ctx context.Context) (string, error) {
	tok, _, err := m.kv.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return tok, nil
}

func (m *Manager) get(ctx context.Context, key string) string {
	v, _, err := m.kv.Get(ctx, key)
	if err != nil {
		m.log.Warn("State read failed", "key", key, applog.FieldError, err)
		return ""
	}
	return v
}

func (m *Manager) fail(err error) error {
	var ae *AuthError
	if !errors.As(err, &ae) {
		ae = &AuthError{Err: err}
	}
	m.mu.Lock()
	m.lastErr = ae
	m.mu.Unlock()
	m.log.Warn("Sign in failed", applog.FieldError, err)
	return ae
}
