package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"expensetracker/internal/app"
	"expensetracker/internal/core"
	"expensetracker/internal/tui"
)

func newMonthsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List months with a sheet and the recent months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.openEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			available, err := e.svc.AvailableMonths(cmd.Context())
			if err != nil {
				return err
			}
			current := core.MonthOf(e.svc.Now())
			t := Table{Headers: []string{"Month", "Sheet", ""}}
			for _, m := range core.NavigationMonths(available, e.svc.Now()) {
				sheet := "-"
				if slices.Contains(available, m) {
					sheet = "yes"
				}
				marker := ""
				if m == current {
					marker = "current"
				}
				t.Rows = append(t.Rows, []string{m.String(), sheet, marker})
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderTable(t))
			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		month    string
		category string
		grouped  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the expenses of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.openEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			st := app.NewState(e.svc.Now)
			if month != "" {
				m, err := core.ParseMonthKey(month)
				if err != nil {
					return err
				}
				if !st.Select(m) {
					return fmt.Errorf("%s is after the current month", m)
				}
			}
			if category != "" {
				c, err := core.ParseCategory(category)
				if err != nil {
					return err
				}
				st.SetFilter(c)
			}
			if grouped {
				st.ToggleGrouped()
			}

			data, err := e.svc.LoadMonth(cmd.Context(), st.Selected)
			st.ApplyMonth(data, err)
			if err != nil {
				return err
			}
			renderMonth(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month as YYYY-MM (default current month)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only show this category")
	cmd.Flags().BoolVarP(&grouped, "group", "g", false, "Group rows by category")
	return cmd
}

// renderMonth prints the month table (or one table per category) and totals.
func renderMonth(w io.Writer, st *app.State) {
	title := "Expenses " + st.Selected.String()
	if st.Filter != core.CategoryAll {
		title += " · " + st.Filter.String()
	}

	if st.EmptyState() {
		fmt.Fprintf(w, "  %s\n", headerStyle.Render(title))
		fmt.Fprintf(w, "  %s\n", mutedStyle.Render("No expenses recorded."))
	} else if st.Grouped {
		fmt.Fprintf(w, "  %s\n", headerStyle.Render(title))
		for _, g := range st.Groups() {
			t := Table{
				Title:   fmt.Sprintf("%s (%d) %s", g.Category, g.Count, g.Subtotal),
				Headers: []string{"Date", "Amount", "Note"},
				Right:   []int{1},
			}
			for _, r := range g.Items {
				t.Rows = append(t.Rows, []string{r.Date, r.Amount.String(), Truncate(r.Note, 40)})
			}
			fmt.Fprint(w, RenderTable(t))
		}
	} else {
		t := Table{Title: title, Headers: []string{"Date", "Category", "Amount", "Note"}, Right: []int{2}}
		for _, r := range st.TableRows() {
			t.Rows = append(t.Rows, []string{r.Date, r.Category.String(), r.Amount.String(), Truncate(r.Note, 40)})
		}
		fmt.Fprint(w, RenderTable(t))
	}

	fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render("Total:"), totalStyle.Render(st.Total().String()))
	if st.Filter != core.CategoryAll {
		fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render("Filtered:"), totalStyle.Render(st.FilteredTotal().String()))
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var vals tui.ExpenseValues
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Long:  "Record an expense in the sheet of its month. Missing fields are asked for interactively when stdin is a terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.openEnv(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			if vals.Date == "" {
				vals.Date = e.svc.Now().Format(core.DateLayout)
			}
			if !vals.Complete() {
				if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
					return errors.New("--category and --amount are required when stdin is not a terminal")
				}
				if err := tui.NewExpenseForm(&vals).Run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return nil
					}
					return err
				}
			}

			row, err := vals.Expense()
			if err != nil {
				return err
			}
			month, err := e.svc.AddExpense(cmd.Context(), row)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s %s %s\n",
				totalStyle.Render("Added"),
				valueStyle.Render(row.Amount.String()),
				mutedStyle.Render(strings.Join([]string{row.Category.String(), row.Date}, " · ")),
				dimStyle.Render("→ "+month.String()))
			return nil
		},
	}
	cmd.Flags().StringVar(&vals.Date, "date", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&vals.Category, "category", "", "Category")
	cmd.Flags().StringVar(&vals.Amount, "amount", "", "Amount, e.g. 120000 or \"Rp 120.000\"")
	cmd.Flags().StringVar(&vals.Note, "note", "", "Optional note")
	return cmd
}
