package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "expensetracker"

type Config struct {
	// Backend selection: "sheets" or "memory"
	DataBackend string

	// Google OAuth client (installed/desktop application)
	GoogleOAuthClientFile string
	GoogleOAuthClientJSON string
	OAuthRedirectPort     int
	OAuthTimeout          time.Duration

	// Document
	SpreadsheetTitle string

	// Local state (token, document id, profile, theme)
	StateDBPath string

	// Memory backend
	MemorySeedFile string

	// Local HTTP API
	Port               string
	RateLimitPerMinute int

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// File the values were read from, empty when none was found.
	Source string
}

// File is the TOML shape of the optional config file. Every key may be
// omitted; environment variables take precedence over the file.
type File struct {
	Backend string `toml:"backend,omitempty"`

	Google struct {
		ClientFile       string `toml:"client_file,omitempty"`
		RedirectPort     int    `toml:"redirect_port,omitempty"`
		Timeout          string `toml:"timeout,omitempty"`
		SpreadsheetTitle string `toml:"spreadsheet_title,omitempty"`
	} `toml:"google"`

	State struct {
		DBPath string `toml:"db_path,omitempty"`
	} `toml:"state"`

	Memory struct {
		SeedFile string `toml:"seed_file,omitempty"`
	} `toml:"memory"`

	Server struct {
		Port               string `toml:"port,omitempty"`
		RateLimitPerMinute int    `toml:"rate_limit_per_minute,omitempty"`
	} `toml:"server"`

	Log struct {
		Level  string `toml:"level,omitempty"`
		Format string `toml:"format,omitempty"`
		File   string `toml:"file,omitempty"`
	} `toml:"log"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		DataBackend:        "sheets",
		OAuthRedirectPort:  0,
		OAuthTimeout:       5 * time.Minute,
		SpreadsheetTitle:   "Expense Tracker",
		StateDBPath:        filepath.Join(StateDir(), "state.db"),
		Port:               "8085",
		RateLimitPerMinute: 120,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Dir returns the XDG config directory of the program.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// StateDir returns the XDG state directory of the program.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", appName)
}

// Load builds the configuration from defaults, the config file at Path (or
// EXPENSETRACKER_CONFIG) and the environment, in that order.
func Load() (*Config, error) {
	path := getEnv("EXPENSETRACKER_CONFIG", Path())
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit config file path. A missing file is not
// an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var f File
			if err := toml.Unmarshal(data, &f); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
			if err := cfg.apply(f); err != nil {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
			cfg.Source = path
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.DataBackend = getEnv("DATA_BACKEND", cfg.DataBackend)
	cfg.GoogleOAuthClientFile = getEnv("GOOGLE_OAUTH_CLIENT_FILE", cfg.GoogleOAuthClientFile)
	cfg.GoogleOAuthClientJSON = getEnv("GOOGLE_OAUTH_CLIENT_JSON", cfg.GoogleOAuthClientJSON)
	cfg.OAuthRedirectPort = getEnvInt("OAUTH_REDIRECT_PORT", cfg.OAuthRedirectPort)
	cfg.OAuthTimeout = getEnvDuration("OAUTH_TIMEOUT", cfg.OAuthTimeout)
	cfg.SpreadsheetTitle = getEnv("SPREADSHEET_TITLE", cfg.SpreadsheetTitle)
	cfg.StateDBPath = getEnv("STATE_DB_PATH", cfg.StateDBPath)
	cfg.MemorySeedFile = getEnv("MEMORY_SEED_FILE", cfg.MemorySeedFile)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	return cfg, nil
}

func (c *Config) apply(f File) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.DataBackend, f.Backend)
	set(&c.GoogleOAuthClientFile, f.Google.ClientFile)
	set(&c.SpreadsheetTitle, f.Google.SpreadsheetTitle)
	set(&c.StateDBPath, expandHome(f.State.DBPath))
	set(&c.MemorySeedFile, expandHome(f.Memory.SeedFile))
	set(&c.Port, f.Server.Port)
	set(&c.LogLevel, f.Log.Level)
	set(&c.LogFormat, f.Log.Format)
	set(&c.LogFile, expandHome(f.Log.File))
	if f.Google.RedirectPort != 0 {
		c.OAuthRedirectPort = f.Google.RedirectPort
	}
	if f.Server.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = f.Server.RateLimitPerMinute
	}
	if f.Google.Timeout != "" {
		d, err := time.ParseDuration(f.Google.Timeout)
		if err != nil {
			return fmt.Errorf("google.timeout: %w", err)
		}
		c.OAuthTimeout = d
	}
	return nil
}

// File returns the config as it would be written to a config file. The
// inline client JSON is never written.
func (c *Config) File() File {
	var f File
	f.Backend = c.DataBackend
	f.Google.ClientFile = c.GoogleOAuthClientFile
	f.Google.RedirectPort = c.OAuthRedirectPort
	f.Google.Timeout = c.OAuthTimeout.String()
	f.Google.SpreadsheetTitle = c.SpreadsheetTitle
	f.State.DBPath = c.StateDBPath
	f.Memory.SeedFile = c.MemorySeedFile
	f.Server.Port = c.Port
	f.Server.RateLimitPerMinute = c.RateLimitPerMinute
	f.Log.Level = c.LogLevel
	f.Log.Format = c.LogFormat
	f.Log.File = c.LogFile
	return f
}

// Save writes f to path, creating the directory.
func Save(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer out.Close()
	if err := toml.NewEncoder(out).Encode(f); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"sheets", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sheets" {
		hasClientFile := c.GoogleOAuthClientFile != ""
		hasClientJSON := c.GoogleOAuthClientJSON != ""
		if !hasClientFile && !hasClientJSON {
			errors = append(errors, "either GOOGLE_OAUTH_CLIENT_FILE or GOOGLE_OAUTH_CLIENT_JSON must be provided for sheets backend")
		}
		if hasClientFile && !hasClientJSON {
			if _, err := os.Stat(c.GoogleOAuthClientFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google OAuth client file does not exist: %s", c.GoogleOAuthClientFile))
			}
		}
	}

	if c.OAuthRedirectPort < 0 || c.OAuthRedirectPort > 65535 {
		errors = append(errors, fmt.Sprintf("invalid OAuth redirect port %d: must be between 0 and 65535", c.OAuthRedirectPort))
	}
	if c.OAuthTimeout < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid OAuth timeout %v: must be at least 10 seconds", c.OAuthTimeout))
	} else if c.OAuthTimeout > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid OAuth timeout %v: must be at most 1 hour", c.OAuthTimeout))
	}

	if strings.TrimSpace(c.SpreadsheetTitle) == "" {
		errors = append(errors, "spreadsheet title cannot be empty")
	}
	if c.StateDBPath == "" {
		errors = append(errors, "state database path cannot be empty")
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
