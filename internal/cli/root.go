package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	backend    string
	ephemeral  bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "expensetracker",
		Short:         "Personal expense tracker on Google Sheets",
		Long:          "Record expenses into a Google spreadsheet with one sheet per month, browse them by month and category, and compare months.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/expensetracker/config.toml)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "Data backend: sheets or memory (memory keeps rows only for the running process; overrides DATA_BACKEND)")
	root.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false, "Keep session state in memory only")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newMonthsCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newCompareCmd(opts),
		newServeCmd(opts),
		newTUICmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// Execute is the main entry point called from main.go.
func Execute() {
	LoadEnvFile()
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
