package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	apihttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the local JSON API on 127.0.0.1",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.openEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			addr := net.JoinHostPort("127.0.0.1", e.cfg.Port)
			srv := apihttp.NewServer(addr, e.svc, apihttp.Options{
				RateLimitPerMinute: e.cfg.RateLimitPerMinute,
				Logger:             e.log,
			})

			ctx, done := GracefulShutdown(cmd.Context(), e.log.Logger, 10*time.Second, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					e.log.Error("Server shutdown failed", applog.FieldError, err)
				}
			})

			errCh := make(chan error, 1)
			go func() {
				e.log.Info("Starting server", "addr", addr, "backend", e.cfg.DataBackend)
				fmt.Fprintf(cmd.ErrOrStderr(), "  Listening on http://%s\n", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server: %w", err)
				}
			case <-ctx.Done():
			}
			// a closed server means shutdown is running
			<-done
			return nil
		},
	}
}
