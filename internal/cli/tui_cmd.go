package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	applog "expensetracker/internal/log"
	"expensetracker/internal/tui"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// the terminal belongs to the dashboard; logs go to LOG_FILE or nowhere
			e, err := opts.openEnv(cmd, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			// sign in before the alternate screen hides the consent URL
			if _, err := e.svc.Open(cmd.Context()); err != nil {
				return err
			}

			if err := tui.Run(cmd.Context(), e.svc, tui.Options{
				Logger: e.log.WithComponent(applog.ComponentTUI).Logger,
			}); err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}
			return nil
		},
	}
}
