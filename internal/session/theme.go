package session

import (
	"context"
	"fmt"
)

// Theme is the persisted color preference of the dashboard.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Theme returns the stored preference, light when unset or unrecognised.
func (m *Manager) Theme(ctx context.Context) Theme {
	if Theme(m.get(ctx, KeyTheme)) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

func (m *Manager) SetTheme(ctx context.Context, t Theme) error {
	if t != ThemeLight && t != ThemeDark {
		return fmt.Errorf("unknown theme %q", t)
	}
	if err := m.kv.Set(ctx, KeyTheme, string(t)); err != nil {
		return fmt.Errorf("store theme: %w", err)
	}
	return nil
}
