package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"expensetracker/internal/app"
	"expensetracker/internal/core"
)

func newCompareCmd(opts *rootOptions) *cobra.Command {
	var (
		month string
		with  []string
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a month's categories with the mean of other months",
		Long: "Compare a month's category totals with the mean of up to three months before\n" +
			"and after it. Without --with the previous month is used.",
		Args: cobra.NoArgs,
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

			months := st.OpenComparison()
			if len(with) > 0 {
				var picked []core.MonthKey
				for _, w := range with {
					m, err := core.ParseMonthKey(strings.TrimSpace(w))
					if err != nil {
						return err
					}
					if !slices.Contains(st.ComparisonOptions(), m) {
						return fmt.Errorf("%s cannot be compared with %s (options: %s)", m, st.Selected, joinMonths(st.ComparisonOptions()))
					}
					picked = append(picked, m)
				}
				months = st.SetComparisonMonths(picked)
			}

			data, err := e.svc.LoadComparison(cmd.Context(), st.Selected, months)
			st.ApplyComparison(data, err)
			if err != nil {
				return err
			}
			renderComparison(cmd, st)
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to compare, YYYY-MM (default current month)")
	cmd.Flags().StringSliceVarP(&with, "with", "w", nil, "Comparison months, e.g. 2025-01,2025-02")
	return cmd
}

func renderComparison(cmd *cobra.Command, st *app.State) {
	out := cmd.OutOrStdout()
	months := st.Comparison.Months
	title := fmt.Sprintf("%s vs %s", st.Selected, joinMonths(months))

	if len(st.Comparison.Rows) == 0 {
		fmt.Fprintf(out, "  %s\n  %s\n", headerStyle.Render(title), mutedStyle.Render("Nothing to compare."))
		return
	}

	headers := []string{"Category", st.Selected.String()}
	for _, m := range months {
		headers = append(headers, m.String())
	}
	headers = append(headers, "Mean", "Diff", "Change")

	right := make([]int, 0, len(headers)-1)
	for i := 1; i < len(headers); i++ {
		right = append(right, i)
	}
	t := Table{Title: title, Headers: headers, Right: right}
	for _, r := range st.Comparison.Rows {
		row := []string{r.Category.String(), r.Current.String()}
		for _, ma := range r.ByMonth {
			row = append(row, ma.Amount.String())
		}
		row = append(row, FormatDecimalAmount(r.Mean), FormatDecimalAmount(r.Diff), FormatPercent(r.Percent))
		t.Rows = append(t.Rows, row)
	}
	fmt.Fprint(out, RenderTable(t))
}

func joinMonths(months []core.MonthKey) string {
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}
