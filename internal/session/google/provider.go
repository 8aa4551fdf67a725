// Package google is the identity provider backed by Google OAuth 2.0. The
// consent flow is the installed-app loopback flow: a one-shot HTTP listener on
// 127.0.0.1 receives the authorization code, which is exchanged with PKCE.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
	gauth "google.golang.org/api/oauth2/v2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensetracker/internal/session"
)

// Scopes requested at consent.
var Scopes = []string{
	gsheet.SpreadsheetsScope,
	gdrive.DriveMetadataReadonlyScope,
	gauth.UserinfoEmailScope,
	gauth.UserinfoProfileScope,
}

const defaultTimeout = 5 * time.Minute

var ErrAuthTimeout = errors.New("authorization timed out")

// Config configures the provider.
type Config struct {
	ClientJSON   []byte
	RedirectPort int           // 0 picks an ephemeral port
	Timeout      time.Duration // how long to wait for the browser callback
	// Prompt receives the authorization URL. Defaults to printing it on stderr.
	Prompt func(authURL string)

	// Overrides for tests.
	UserinfoEndpoint string
	HTTPClient       *http.Client

	Logger *slog.Logger
}

// Provider implements session.IdentityProvider.
type Provider struct {
	cfg   Config
	oauth *oauth2.Config
	log   *slog.Logger
}

var _ session.IdentityProvider = (*Provider)(nil)

// New parses the OAuth client configuration.
func New(cfg Config) (*Provider, error) {
	if len(cfg.ClientJSON) == 0 {
		return nil, errors.New("missing OAuth client configuration")
	}
	oc, err := goauth.ConfigFromJSON(cfg.ClientJSON, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Prompt == nil {
		cfg.Prompt = func(u string) {
			fmt.Fprintf(os.Stderr, "Open this URL to sign in:\n%s\n", u)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{cfg: cfg, oauth: oc, log: logger}, nil
}

// Loader returns a session.Loader that builds the provider from cfg.
func Loader(cfg Config) session.Loader {
	return func(context.Context) (session.IdentityProvider, error) {
		p, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// LoadClientJSON returns the inline JSON when set, else the content of file.
func LoadClientJSON(inline, file string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(file) != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read client file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
}

type callbackResult struct {
	code string
	err  error
}

// RequestToken runs the consent flow and returns the access token.
func (p *Provider) RequestToken(ctx context.Context) (string, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", p.cfg.RedirectPort))
	if err != nil {
		return "", fmt.Errorf("listen for oauth callback: %w", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	conf := *p.oauth
	conf.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	deliver := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("oauth callback state mismatch")})
			return
		}
		if errStr := q.Get("error"); errStr != "" {
			http.Error(w, "Sign in was cancelled: "+errStr, http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("%w: %s", session.ErrConsentDenied, errStr)})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("oauth callback without code")})
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		deliver(callbackResult{code: code})
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "consent"))
	p.log.DebugContext(ctx, "Waiting for oauth callback", "redirect_url", conf.RedirectURL)
	p.cfg.Prompt(authURL)

	timer := time.NewTimer(p.cfg.Timeout)
	defer timer.Stop()

	var res callbackResult
	select {
	case res = <-results:
	case <-timer.C:
		return "", ErrAuthTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if res.err != nil {
		return "", res.err
	}

	tok, err := conf.Exchange(p.clientContext(ctx), res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token exchange returned no access token")
	}
	return tok.AccessToken, nil
}

// FetchProfile looks the user up with the userinfo endpoint.
func (p *Provider) FetchProfile(ctx context.Context, token string) (session.Profile, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	opts := []goption.ClientOption{
		goption.WithHTTPClient(oauth2.NewClient(p.clientContext(ctx), ts)),
	}
	if p.cfg.UserinfoEndpoint != "" {
		opts = append(opts, goption.WithEndpoint(p.cfg.UserinfoEndpoint))
	}
	svc, err := gauth.NewService(ctx, opts...)
	if err != nil {
		return session.Profile{}, fmt.Errorf("userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return session.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	return session.Profile{Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	if p.cfg.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.cfg.HTTPClient)
}
