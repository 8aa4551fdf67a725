// Package cli implements the expensetracker commands and the start-up
// plumbing they share: .env loading, configuration, logging and the local
// state store.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// SetupLogger builds the logger described by cfg. Output goes to LOG_FILE
// when set, otherwise to fallback. The returned close func releases the file.
func SetupLogger(cfg *config.Config, fallback io.Writer) (*applog.Logger, func() error, error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	out, closer := fallback, func() error { return nil }
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out, closer = f, f.Close
	}
	if out == nil {
		out = io.Discard
	}

	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Output:    out,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger, closer, nil
}

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from path (the default location
// when empty), applies a non-empty backend override and validates the result.
func LoadAndValidateConfig(path, backend string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.DataBackend = backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenState opens the durable key-value store at cfg.StateDBPath, or an
// in-memory one when ephemeral is set.
func OpenState(cfg *config.Config, ephemeral bool, logger *slog.Logger) (storage.KV, func() error, error) {
	if ephemeral {
		return storage.NewMemoryKV(), func() error { return nil }, nil
	}
	kv, err := storage.OpenSQLite(cfg.StateDBPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open state %s: %w", cfg.StateDBPath, err)
	}
	return kv, kv.Close, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM, after
// cleanup ran with a timeout-bound context. done is closed once cleanup
// returned.
func GracefulShutdown(parent context.Context, logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-parent.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		cancel()
		close(done)
	}()

	return ctx, done
}
