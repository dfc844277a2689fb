package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeColor returns the adaptive light/dark hex pair for ANSI256+
// terminals and the given 16-color fallback for anything dimmer. Every
// theme color goes through here so a 16-color terminal degrades to its
// palette instead of getting hex codes it cannot render.
func ThemeColor(light, dark string, fallback lipgloss.ANSIColor) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return fallback
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme holds the colors and pre-computed styles for the browser. Styles
// are created once at startup, never per-frame.
type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.TerminalColor
	Secondary lipgloss.TerminalColor
	Subtext   lipgloss.TerminalColor

	// Connection status
	Connected    lipgloss.TerminalColor
	Connecting   lipgloss.TerminalColor
	Disconnected lipgloss.TerminalColor
	Failed       lipgloss.TerminalColor

	// Node kinds
	Container lipgloss.TerminalColor
	Leaf      lipgloss.TerminalColor

	// UI Elements
	Border    lipgloss.TerminalColor
	Highlight lipgloss.TerminalColor
	Muted     lipgloss.TerminalColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	MutedText     lipgloss.Style
	SecondaryText lipgloss.Style
	PrimaryBold   lipgloss.Style
	ErrorText     lipgloss.Style
	StatusOK      lipgloss.Style
	StatusWarn    lipgloss.Style
	SearchMatch   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   ThemeColor("#6B47D9", "#BD93F9", 5), // Purple -> magenta
		Secondary: ThemeColor("#555555", "#6272A4", 8), // Gray -> bright black
		Subtext:   ThemeColor("#666666", "#BFBFBF", 7), // Dim -> white

		Connected:    ThemeColor("#007700", "#50FA7B", 2), // Green
		Connecting:   ThemeColor("#B06800", "#FFB86C", 3), // Orange -> yellow
		Disconnected: ThemeColor("#555555", "#6272A4", 8), // Gray
		Failed:       ThemeColor("#CC0000", "#FF5555", 1), // Red

		Container: ThemeColor("#2684FF", "#4C9AFF", 4), // Blue
		Leaf:      ThemeColor("#006080", "#8BE9FD", 6), // Cyan

		Border:    ThemeColor("#AAAAAA", "#44475A", 8),
		Highlight: ThemeColor("#E0E0E0", "#44475A", 8),
		Muted:     ThemeColor("#555555", "#6272A4", 8),
	}

	t.Base = r.NewStyle().Foreground(ThemeColor("#000000", "#F8F8F2", 7))
	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Bold(true)
	t.Header = r.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(t.Border)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ErrorText = r.NewStyle().Foreground(t.Failed)
	t.StatusOK = r.NewStyle().Foreground(t.Connected)
	t.StatusWarn = r.NewStyle().Foreground(t.Connecting)
	t.SearchMatch = r.NewStyle().Foreground(t.Primary).Underline(true)

	return t
}

// LightTheme adjusts the default theme for light terminal backgrounds.
func LightTheme(r *lipgloss.Renderer) Theme {
	t := DefaultTheme(r)
	t.Base = r.NewStyle().Foreground(ThemeFg("#202020"))
	return t
}

// ThemeByName resolves a configured theme name, falling back to the dark
// default for unknown names.
func ThemeByName(name string, r *lipgloss.Renderer) Theme {
	if name == "light" {
		return LightTheme(r)
	}
	return DefaultTheme(r)
}
