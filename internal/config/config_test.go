package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DataBackend:           "sheets",
		GoogleOAuthClientJSON: `{"installed":{}}`,
		OAuthTimeout:          5 * time.Minute,
		SpreadsheetTitle:      "Expense Tracker",
		StateDBPath:           "/tmp/state.db",
		Port:                  "8085",
		RateLimitPerMinute:    60,
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid sheets backend config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name: "valid memory backend without client",
			mutate: func(c *Config) {
				c.DataBackend = "memory"
				c.GoogleOAuthClientJSON = ""
			},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "sqlite" },
			wantErr:     true,
			errorString: "invalid data backend 'sqlite': must be one of [sheets memory]",
		},
		{
			name:        "sheets backend without client",
			mutate:      func(c *Config) { c.GoogleOAuthClientJSON = "" },
			wantErr:     true,
			errorString: "either GOOGLE_OAUTH_CLIENT_FILE or GOOGLE_OAUTH_CLIENT_JSON must be provided",
		},
		{
			name: "sheets backend with missing client file",
			mutate: func(c *Config) {
				c.GoogleOAuthClientJSON = ""
				c.GoogleOAuthClientFile = "/nonexistent/client.json"
			},
			wantErr:     true,
			errorString: "Google OAuth client file does not exist",
		},
		{
			name:        "oauth timeout too short",
			mutate:      func(c *Config) { c.OAuthTimeout = time.Second },
			wantErr:     true,
			errorString: "invalid OAuth timeout 1s: must be at least 10 seconds",
		},
		{
			name:        "redirect port out of range",
			mutate:      func(c *Config) { c.OAuthRedirectPort = -1 },
			wantErr:     true,
			errorString: "invalid OAuth redirect port -1",
		},
		{
			name:        "empty title",
			mutate:      func(c *Config) { c.SpreadsheetTitle = " " },
			wantErr:     true,
			errorString: "spreadsheet title cannot be empty",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "bad log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "rate limit zero",
			mutate:      func(c *Config) { c.RateLimitPerMinute = 0 },
			wantErr:     true,
			errorString: "invalid rate limit 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateAccumulates(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "x"
	cfg.LogFormat = "xml"
	err := cfg.Validate()
	if err == nil || !strings.HasPrefix(err.Error(), "configuration validation failed:") || strings.Count(err.Error(), "\n- ") != 2 {
		t.Fatalf("expected two accumulated problems, got %v", err)
	}
}

func TestConfig_ValidateWithClientFile(t *testing.T) {
	clientFile := filepath.Join(t.TempDir(), "client.json")
	if err := os.WriteFile(clientFile, []byte(`{"installed":{}}`), 0o644); err != nil {
		t.Fatalf("Failed to create test client file: %v", err)
	}
	cfg := validConfig()
	cfg.GoogleOAuthClientJSON = ""
	cfg.GoogleOAuthClientFile = clientFile
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

var envKeys = []string{
	"DATA_BACKEND", "GOOGLE_OAUTH_CLIENT_FILE", "GOOGLE_OAUTH_CLIENT_JSON", "OAUTH_REDIRECT_PORT",
	"OAUTH_TIMEOUT", "SPREADSHEET_TITLE", "STATE_DB_PATH", "MEMORY_SEED_FILE", "PORT",
	"RATE_LIMIT_PER_MINUTE", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("XDG_STATE_HOME", "/xdg/state")
		cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.DataBackend != "sheets" || cfg.Port != "8085" || cfg.OAuthTimeout != 5*time.Minute {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
		if cfg.StateDBPath != "/xdg/state/expensetracker/state.db" {
			t.Errorf("state path: got %s", cfg.StateDBPath)
		}
		if cfg.Source != "" {
			t.Errorf("no file was read, got source %q", cfg.Source)
		}
	})

	t.Run("file then environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
backend = "memory"

[google]
redirect_port = 8086
timeout = "2m"
spreadsheet_title = "Budget"

[server]
port = "9000"

[log]
level = "debug"
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("PORT", "9090")
		t.Setenv("OAUTH_TIMEOUT", "90s")

		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.DataBackend != "memory" || cfg.OAuthRedirectPort != 8086 || cfg.SpreadsheetTitle != "Budget" || cfg.LogLevel != "debug" {
			t.Errorf("file values not applied: %+v", cfg)
		}
		if cfg.Port != "9090" || cfg.OAuthTimeout != 90*time.Second {
			t.Errorf("environment must override file: port=%s timeout=%v", cfg.Port, cfg.OAuthTimeout)
		}
		if cfg.Source != path {
			t.Errorf("source: got %q", cfg.Source)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.toml")
		os.WriteFile(path, []byte("backend = "), 0o600)
		if _, err := LoadFrom(path); err == nil {
			t.Fatalf("expected parse error")
		}
		os.WriteFile(path, []byte("[google]\ntimeout = \"soon\"\n"), 0o600)
		if _, err := LoadFrom(path); err == nil {
			t.Fatalf("expected duration error")
		}
	})
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := validConfig()
	cfg.DataBackend = "memory"
	cfg.OAuthRedirectPort = 8087
	if err := Save(path, cfg.File()); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "installed") {
		t.Fatalf("inline client json must not be written: %s", data)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.DataBackend != "memory" || loaded.OAuthRedirectPort != 8087 || loaded.RateLimitPerMinute != 60 {
		t.Fatalf("round trip lost values: %+v", loaded)
	}
}
