package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google and open the expense document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.openEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			id, err := e.svc.Open(cmd.Context())
			if err != nil {
				return err
			}
			p := e.svc.Profile(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, totalStyle.Render("  Signed in"))
			fmt.Fprint(out, RenderKV([][2]string{
				{"Account", orDash(p.Email)},
				{"Name", orDash(p.Name)},
				{"Document", id},
			}))
			return nil
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the access token and profile",
		Long:  "Forget the access token and profile. The document id is kept, so the next login reuses the same spreadsheet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.openEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.svc.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "  Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.openEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if !e.session.IsSignedIn(ctx) {
				fmt.Fprintln(out, warnStyle.Render("  Not signed in.")+mutedStyle.Render(" Run `expensetracker login`."))
				return nil
			}
			p := e.session.Profile(ctx)
			fmt.Fprint(out, RenderKV([][2]string{
				{"Account", orDash(p.Email)},
				{"Name", orDash(p.Name)},
				{"Document", orDash(e.session.DocumentID(ctx))},
				{"Backend", e.cfg.DataBackend},
			}))
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
