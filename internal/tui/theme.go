package tui

import (
	"github.com/charmbracelet/lipgloss"

	"expensetracker/internal/session"
)

// Theme defines the color roles used throughout the dashboard.
type Theme struct {
	Name        session.Theme
	Background  lipgloss.Color
	Surface     lipgloss.Color
	Border      lipgloss.Color
	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextPrimary lipgloss.Color
	Accent      lipgloss.Color
	Green       lipgloss.Color
	Red         lipgloss.Color
	Orange      lipgloss.Color
}

// FlexokiLight is the default theme.
var FlexokiLight = Theme{
	Name:        session.ThemeLight,
	Background:  lipgloss.Color("#FFFCF0"),
	Surface:     lipgloss.Color("#F2F0E5"),
	Border:      lipgloss.Color("#CECDC3"),
	TextDim:     lipgloss.Color("#B7B5AC"),
	TextMuted:   lipgloss.Color("#6F6E69"),
	TextPrimary: lipgloss.Color("#100F0F"),
	Accent:      lipgloss.Color("#24837B"),
	Green:       lipgloss.Color("#66800B"),
	Red:         lipgloss.Color("#AF3029"),
	Orange:      lipgloss.Color("#BC5215"),
}

var FlexokiDark = Theme{
	Name:        session.ThemeDark,
	Background:  lipgloss.Color("#100F0F"),
	Surface:     lipgloss.Color("#1C1B1A"),
	Border:      lipgloss.Color("#403E3C"),
	TextDim:     lipgloss.Color("#575653"),
	TextMuted:   lipgloss.Color("#878580"),
	TextPrimary: lipgloss.Color("#FFFCF0"),
	Accent:      lipgloss.Color("#3AA99F"),
	Green:       lipgloss.Color("#879A39"),
	Red:         lipgloss.Color("#D14D41"),
	Orange:      lipgloss.Color("#DA702C"),
}

// ThemeFor maps the stored preference to a palette.
func ThemeFor(t session.Theme) Theme {
	if t == session.ThemeDark {
		return FlexokiDark
	}
	return FlexokiLight
}

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	dim     lipgloss.Style
	accent  lipgloss.Style
	total   lipgloss.Style
	banner  lipgloss.Style
	header  lipgloss.Style
	up      lipgloss.Style
	down    lipgloss.Style
	card    lipgloss.Style
	spinner lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:   lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		label:   lipgloss.NewStyle().Foreground(t.TextMuted),
		value:   lipgloss.NewStyle().Foreground(t.TextPrimary),
		dim:     lipgloss.NewStyle().Foreground(t.TextDim),
		accent:  lipgloss.NewStyle().Foreground(t.Accent),
		total:   lipgloss.NewStyle().Foreground(t.Green).Bold(true),
		banner:  lipgloss.NewStyle().Foreground(t.Background).Background(t.Red).Padding(0, 1),
		header:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Underline(true),
		up:      lipgloss.NewStyle().Foreground(t.Red),
		down:    lipgloss.NewStyle().Foreground(t.Green),
		card:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border).Padding(0, 1),
		spinner: lipgloss.NewStyle().Foreground(t.Accent),
	}
}
