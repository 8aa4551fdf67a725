// Package tui is the interactive month dashboard.
package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"expensetracker/internal/app"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/session"
)

type mode int

const (
	modeDashboard mode = iota
	modeAdd
	modePickComparison
	modeComparison
)

// Options tunes the dashboard.
type Options struct {
	Logger *slog.Logger
}

// Model is the Bubble Tea model of the dashboard. It is the only writer of
// its app.State.
type Model struct {
	ctx   context.Context
	svc   *app.Service
	state *app.State
	log   *slog.Logger

	theme   Theme
	styles  styles
	spinner spinner.Model
	profile session.Profile

	width  int
	height int

	mode        mode
	form        *huh.Form
	formVals    *ExpenseValues
	compareVals *[]string
	adding      bool
}

// New creates the dashboard over svc. The first load is issued by Init.
func New(ctx context.Context, svc *app.Service, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	theme := ThemeFor(svc.Session().Theme(ctx))

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		svc:     svc,
		state:   app.NewState(svc.Now),
		log:     logger,
		theme:   theme,
		styles:  newStyles(theme),
		spinner: sp,
		profile: svc.Profile(ctx),
	}
	m.spinner.Style = m.styles.spinner
	m.state.Select(m.state.Selected)
	return m
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctx context.Context, svc *app.Service, opts Options) error {
	p := tea.NewProgram(New(ctx, svc, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadSelected(), m.spinner.Tick)
}

func (m Model) loadSelected() tea.Cmd {
	return loadMonthCmd(m.ctx, m.svc, m.state.Selected)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.form != nil {
			m.form = m.form.WithWidth(m.formWidth())
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case monthLoadedMsg:
		if !m.state.ApplyMonth(msg.data, msg.err) {
			m.log.Debug("Discarded stale month load", applog.FieldMonth, msg.data.Month.String())
		} else if msg.err != nil {
			m.log.Warn("Month load failed", applog.FieldMonth, msg.data.Month.String(), applog.FieldError, msg.err)
		}
		return m, nil

	case expenseAddedMsg:
		m.adding = false
		if !m.state.ApplyAdded(msg.month, msg.err) {
			// keep the form open with what the user typed
			m.form = m.newExpenseForm()
			return m, m.form.Init()
		}
		m.closeForm()
		return m, m.loadSelected()

	case comparisonLoadedMsg:
		if !m.state.ApplyComparison(msg.data, msg.err) {
			m.log.Debug("Discarded stale comparison", applog.FieldMonth, msg.data.Current.String())
		}
		return m, nil

	case themeSavedMsg:
		if msg.err != nil {
			m.state.SetError(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd, modePickComparison:
			if msg.String() == "esc" {
				return m.cancelForm(), nil
			}
			return m.updateForm(msg)
		case modeComparison:
			return m.updateComparisonKeys(msg)
		default:
			return m.updateDashboardKeys(msg)
		}
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) updateDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.state.Prev()
		return m, m.loadSelected()
	case "right", "l":
		if _, ok := m.state.Next(); ok {
			return m, m.loadSelected()
		}
	case "f":
		m.state.CycleFilter()
	case "g":
		m.state.ToggleGrouped()
	case "x":
		m.state.ClearError()
	case "r":
		m.state.Select(m.state.Selected)
		return m, m.loadSelected()
	case "t":
		return m.toggleTheme()
	case "a":
		m.mode = modeAdd
		m.formVals = &ExpenseValues{Date: m.defaultDate()}
		m.form = m.newExpenseForm()
		return m, m.form.Init()
	case "c":
		months := m.state.OpenComparison()
		m.mode = modeComparison
		return m, loadComparisonCmd(m.ctx, m.svc, m.state.Selected, months)
	}
	return m, nil
}

func (m Model) updateComparisonKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.state.CloseComparison()
		m.mode = modeDashboard
	case "c", "enter":
		vals := make([]string, 0, len(m.state.Comparison.Months))
		for _, k := range m.state.Comparison.Months {
			vals = append(vals, k.String())
		}
		// The form writes through this pointer, so it must outlive model copies.
		m.compareVals = &vals
		m.mode = modePickComparison
		m.form = newComparisonForm(m.state.Selected, m.state.ComparisonOptions(), m.compareVals).
			WithWidth(m.formWidth())
		return m, m.form.Init()
	case "r":
		return m, m.reloadComparison()
	case "x":
		m.state.ClearError()
	case "t":
		return m.toggleTheme()
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.adding {
		return m, nil
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if m.mode == modePickComparison {
			return m.applyComparisonPick()
		}
		return m.submitExpense()
	case huh.StateAborted:
		return m.cancelForm(), nil
	}
	return m, cmd
}

func (m Model) submitExpense() (tea.Model, tea.Cmd) {
	row, err := m.formVals.Expense()
	if err != nil {
		m.state.SetError(err)
		m.form = m.newExpenseForm()
		return m, m.form.Init()
	}
	m.adding = true
	return m, addExpenseCmd(m.ctx, m.svc, row)
}

func (m Model) applyComparisonPick() (tea.Model, tea.Cmd) {
	var picked []core.MonthKey
	if m.compareVals == nil {
		m.form = nil
		m.mode = modeComparison
		return m, nil
	}
	for _, v := range *m.compareVals {
		if k, err := core.ParseMonthKey(v); err == nil {
			picked = append(picked, k)
		}
	}
	m.state.SetComparisonMonths(picked)
	m.form = nil
	m.mode = modeComparison
	return m, m.reloadComparison()
}

func (m Model) reloadComparison() tea.Cmd {
	c := m.state.Comparison
	if !c.Open || len(c.Months) == 0 {
		return nil
	}
	m.state.Comparison.Loading = true
	return loadComparisonCmd(m.ctx, m.svc, m.state.Selected, c.Months)
}

func (m Model) cancelForm() Model {
	if m.mode == modePickComparison {
		m.form = nil
		m.mode = modeComparison
		return m
	}
	m.closeForm()
	return m
}

func (m *Model) closeForm() {
	m.form = nil
	m.formVals = nil
	m.mode = modeDashboard
}

func (m Model) toggleTheme() (tea.Model, tea.Cmd) {
	m.theme = ThemeFor(m.theme.Name.Toggle())
	m.styles = newStyles(m.theme)
	m.spinner.Style = m.styles.spinner
	return m, saveThemeCmd(m.ctx, m.svc.Session(), m.theme.Name)
}

func (m Model) newExpenseForm() *huh.Form {
	return NewExpenseForm(m.formVals).
		WithShowHelp(true).
		WithWidth(m.formWidth())
}

// defaultDate is today when the selected month is current, otherwise the
// first day of the selected month.
func (m Model) defaultDate() string {
	now := m.svc.Now()
	if core.MonthOf(now) == m.state.Selected {
		return now.Format(core.DateLayout)
	}
	return m.state.Selected.String() + "-01"
}

func (m Model) formWidth() int {
	if m.width == 0 || m.width > 64 {
		return 60
	}
	return m.width - 4
}

// State exposes the view model for tests and embedding.
func (m Model) State() *app.State { return m.state }
