package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"expensetracker/internal/app"
	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/session"
)

// env is everything a command needs once configuration is resolved.
type env struct {
	cfg     *config.Config
	log     *applog.Logger
	session *session.Manager
	svc     *app.Service

	closers []func() error
}

// Close releases the state store and the log file.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openEnv resolves configuration, logging, state, backend and session.
// logOut receives log output when no log file is configured.
func (o *rootOptions) openEnv(cmd *cobra.Command, logOut io.Writer) (*env, error) {
	cfg, err := LoadAndValidateConfig(o.configPath, o.backend)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := SetupLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: logger, closers: []func() error{closeLog}}

	stateLog := logger.WithComponent(applog.ComponentStorage).Logger
	kv, closeKV, err := OpenState(cfg, o.ephemeral, stateLog)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	e.closers = append(e.closers, closeKV)

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	stderr := cmd.ErrOrStderr()
	bc.Prompt = func(authURL string) {
		fmt.Fprintf(stderr, "Open this URL in your browser to sign in:\n\n  %s\n\n", authURL)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateConnector(cmd.Context(), bc)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	if res.Cleanup != nil {
		e.closers = append(e.closers, res.Cleanup)
	}

	e.session = session.NewManager(kv, logger.WithComponent(applog.ComponentSession).Logger)
	e.session.Start(cmd.Context(), res.Loader)
	e.svc = app.NewService(e.session, res.Connector, app.Options{
		Logger: logger.WithComponent(applog.ComponentApp).Logger,
	})
	return e, nil
}
