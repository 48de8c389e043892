// Package prefs persists the console's user preferences.
package prefs

import (
	"context"
	"strings"

	pkgerrors "gradedesk/pkg/errors"
)

// Theme is the console color scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark" in any case. Empty means Light.
func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Light):
		return Light, nil
	case string(Dark):
		return Dark, nil
	default:
		return Light, pkgerrors.Newf(pkgerrors.InvalidTheme, "invalid theme %q", s)
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// EditorTheme maps the console theme to the editor widget theme name.
func (t Theme) EditorTheme() string {
	if t == Dark {
		return "vs-dark"
	}
	return "vs"
}

// Store reads and writes preferences. A missing value reads as the default.
type Store interface {
	Theme(ctx context.Context) (Theme, error)
	SetTheme(ctx context.Context, theme Theme) error
}
