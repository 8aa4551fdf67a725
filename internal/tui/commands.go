package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"expensetracker/internal/app"
	"expensetracker/internal/core"
	"expensetracker/internal/session"
)

// monthLoadedMsg carries a finished month load. data.Month is the month the
// load was issued for, which may no longer be selected.
type monthLoadedMsg struct {
	data app.MonthData
	err  error
}

type expenseAddedMsg struct {
	month core.MonthKey
	err   error
}

type comparisonLoadedMsg struct {
	data app.ComparisonData
	err  error
}

type themeSavedMsg struct {
	err error
}

func loadMonthCmd(ctx context.Context, svc *app.Service, month core.MonthKey) tea.Cmd {
	return func() tea.Msg {
		data, err := svc.LoadMonth(ctx, month)
		return monthLoadedMsg{data: data, err: err}
	}
}

func addExpenseCmd(ctx context.Context, svc *app.Service, row core.Expense) tea.Cmd {
	return func() tea.Msg {
		month, err := svc.AddExpense(ctx, row)
		return expenseAddedMsg{month: month, err: err}
	}
}

func loadComparisonCmd(ctx context.Context, svc *app.Service, current core.MonthKey, months []core.MonthKey) tea.Cmd {
	months = append([]core.MonthKey(nil), months...)
	return func() tea.Msg {
		data, err := svc.LoadComparison(ctx, current, months)
		return comparisonLoadedMsg{data: data, err: err}
	}
}

func saveThemeCmd(ctx context.Context, sess *session.Manager, t session.Theme) tea.Cmd {
	return func() tea.Msg {
		return themeSavedMsg{err: sess.SetTheme(ctx, t)}
	}
}
