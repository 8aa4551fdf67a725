package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"expensetracker/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadUnvalidated(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			path := configPath(opts)
			fmt.Fprintf(out, "  Config file: %s\n", path)
			if cfg.Source != "" {
				fmt.Fprintln(out, "  Status: loaded")
			} else {
				fmt.Fprintln(out, "  Status: using defaults (no config file)")
			}
			fmt.Fprintln(out)

			client := "not configured"
			switch {
			case cfg.GoogleOAuthClientJSON != "":
				client = "inline JSON (GOOGLE_OAUTH_CLIENT_JSON)"
			case cfg.GoogleOAuthClientFile != "":
				client = cfg.GoogleOAuthClientFile
			}
			redirect := "ephemeral"
			if cfg.OAuthRedirectPort != 0 {
				redirect = fmt.Sprintf("%d", cfg.OAuthRedirectPort)
			}

			fmt.Fprintln(out, "  [Data]")
			fmt.Fprint(out, RenderKV([][2]string{
				{"Backend", cfg.DataBackend},
				{"Spreadsheet", cfg.SpreadsheetTitle},
				{"State database", cfg.StateDBPath},
				{"Memory seed", orDash(cfg.MemorySeedFile)},
			}))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  [Google]")
			fmt.Fprint(out, RenderKV([][2]string{
				{"OAuth client", client},
				{"Redirect port", redirect},
				{"Consent timeout", cfg.OAuthTimeout.String()},
			}))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  [Server]")
			fmt.Fprint(out, RenderKV([][2]string{
				{"Port", cfg.Port},
				{"Rate limit", fmt.Sprintf("%d/min", cfg.RateLimitPerMinute)},
			}))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  [Log]")
			fmt.Fprint(out, RenderKV([][2]string{
				{"Level", cfg.LogLevel},
				{"Format", cfg.LogFormat},
				{"File", orDash(cfg.LogFile)},
			}))

			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(out)
				fmt.Fprintln(out, errorStyle.Render("  "+err.Error()))
			}
			return nil
		},
	}
	cmd.AddCommand(newConfigInitCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath(opts)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			cfg, err := loadUnvalidated(opts)
			if err != nil {
				return err
			}
			if err := config.Save(path, cfg.File()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func configPath(opts *rootOptions) string {
	if opts.configPath != "" {
		return opts.configPath
	}
	if p := os.Getenv("EXPENSETRACKER_CONFIG"); p != "" {
		return p
	}
	return config.Path()
}

// loadUnvalidated loads the config so it can be shown even when invalid.
func loadUnvalidated(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadFrom(configPath(opts))
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.DataBackend = opts.backend
	}
	return cfg, nil
}
