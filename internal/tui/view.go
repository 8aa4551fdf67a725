package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"expensetracker/internal/core"
)

const maxContentWidth = 100

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	if m.state.Banner != "" {
		b.WriteString(m.styles.banner.Render(m.state.Banner))
		b.WriteString(m.styles.dim.Render("  x dismiss"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.mode {
	case modeAdd:
		b.WriteString(m.styles.title.Render("New expense"))
		b.WriteString("\n")
		if m.adding {
			b.WriteString(m.spinner.View() + m.styles.label.Render(" Saving..."))
			b.WriteString("\n")
		} else if m.form != nil {
			b.WriteString(m.styles.card.Render(m.form.View()))
			b.WriteString("\n")
		}
		b.WriteString(m.styles.dim.Render("esc cancel"))
	case modePickComparison:
		if m.form != nil {
			b.WriteString(m.styles.card.Render(m.form.View()))
			b.WriteString("\n")
		}
		b.WriteString(m.styles.dim.Render("space toggle · enter apply · esc back"))
	case modeComparison:
		b.WriteString(m.viewComparison())
		b.WriteString("\n")
		b.WriteString(m.styles.dim.Render("c choose months · r reload · t theme · esc back"))
	default:
		b.WriteString(m.viewMonth())
		b.WriteString("\n")
		b.WriteString(m.styles.dim.Render("←/→ month · f filter · g group · a add · c compare · r reload · t theme · q quit"))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) viewHeader() string {
	s := m.styles
	left := s.title.Render("◈ Expense Tracker")

	prev := s.accent.Render("‹ " + m.state.Selected.Prev().String())
	next := s.dim.Render(m.state.Selected.Next().String() + " ›")
	if m.state.CanGoNext() {
		next = s.accent.Render(m.state.Selected.Next().String() + " ›")
	}
	nav := prev + "  " + s.value.Bold(true).Render(m.state.Selected.String()) + "  " + next

	who := m.profile.Email
	if m.profile.Name != "" {
		who = m.profile.Name
	}
	right := s.label.Render(who)

	w := m.contentWidth()
	gap := max(2, w-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right + "\n" + nav
}

func (m Model) viewMonth() string {
	s := m.styles
	var b strings.Builder

	grouping := "off"
	if m.state.Grouped {
		grouping = "on"
	}
	b.WriteString(s.label.Render("Filter ") + s.value.Render(m.state.Filter.String()) +
		s.dim.Render(" · ") + s.label.Render("Group ") + s.value.Render(grouping))
	b.WriteString("\n\n")

	switch {
	case m.state.Loading:
		b.WriteString(m.spinner.View() + s.label.Render(" Loading "+m.state.Selected.String()+"..."))
		b.WriteString("\n")
	case m.state.EmptyState():
		b.WriteString(s.label.Render("No expenses recorded for " + m.state.Selected.String() + "."))
		b.WriteString("\n")
	case m.state.Grouped:
		for _, g := range m.state.Groups() {
			b.WriteString(s.header.Render(fmt.Sprintf("%s (%d)", g.Category, g.Count)))
			b.WriteString("  " + s.total.Render(g.Subtotal.String()))
			b.WriteString("\n")
			b.WriteString(m.renderRows(g.Items, false))
		}
	default:
		b.WriteString(m.renderRows(m.state.TableRows(), true))
	}

	b.WriteString("\n")
	b.WriteString(s.label.Render("Total ") + s.total.Render(m.state.Total().String()))
	if m.state.Filter != core.CategoryAll {
		b.WriteString(s.dim.Render(" · ") + s.label.Render("Filtered ") + s.total.Render(m.state.FilteredTotal().String()))
	}
	b.WriteString("\n")
	return b.String()
}

// renderRows renders up to the rows that fit the terminal.
func (m Model) renderRows(rows []core.Expense, withCategory bool) string {
	s := m.styles
	limit := len(rows)
	if m.height > 0 {
		limit = min(limit, max(3, m.height-14))
	}

	var b strings.Builder
	for _, r := range rows[:limit] {
		line := s.label.Render(r.Date) + "  "
		if withCategory {
			line += s.value.Render(fmt.Sprintf("%-18s", r.Category)) + "  "
		}
		line += s.value.Render(fmt.Sprintf("%14s", r.Amount.String()))
		if r.Note != "" {
			line += "  " + s.dim.Render(truncate(r.Note, 40))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if hidden := len(rows) - limit; hidden > 0 {
		b.WriteString(s.dim.Render(fmt.Sprintf("… %d more", hidden)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewComparison() string {
	s := m.styles
	c := m.state.Comparison
	var b strings.Builder

	names := make([]string, len(c.Months))
	for i, k := range c.Months {
		names[i] = k.String()
	}
	b.WriteString(s.title.Render("Compare " + m.state.Selected.String()))
	b.WriteString(s.label.Render(" with " + strings.Join(names, ", ")))
	b.WriteString("\n\n")

	switch {
	case c.Loading:
		b.WriteString(m.spinner.View() + s.label.Render(" Loading comparison..."))
		b.WriteString("\n")
		return b.String()
	case len(c.Months) == 0:
		b.WriteString(s.label.Render("No comparison months selected."))
		b.WriteString("\n")
		return b.String()
	case len(c.Rows) == 0:
		b.WriteString(s.label.Render("Nothing to compare."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(s.label.Render(fmt.Sprintf("%-18s  %14s  %14s  %8s", "Category", "Current", "Mean", "Change")))
	b.WriteString("\n")
	for _, r := range c.Rows {
		change := fmt.Sprintf("%d%%", r.Percent)
		style := s.value
		switch {
		case r.Percent > 0:
			change = "+" + change
			style = s.up
		case r.Percent < 0:
			style = s.down
		}
		mean := core.Rupiah(r.Mean.Round(0).IntPart())
		b.WriteString(s.value.Render(fmt.Sprintf("%-18s  %14s  %14s  ", r.Category, r.Current, mean)))
		b.WriteString(style.Render(fmt.Sprintf("%8s", change)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) contentWidth() int {
	if m.width == 0 || m.width-4 > maxContentWidth {
		return maxContentWidth
	}
	return m.width - 4
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
