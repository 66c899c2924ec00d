package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Deezer purple for headings; the rest follow terminal background so the selector stays readable on light themes.
var styles = newTheme(
	lipgloss.AdaptiveColor{Light: "#7B1FD1", Dark: "#A238FF"},
	lipgloss.AdaptiveColor{Light: "#027A48", Dark: "#04B575"},
	lipgloss.AdaptiveColor{Light: "#C00000", Dark: "#FF5555"},
	lipgloss.AdaptiveColor{Light: "#B25E00", Dark: "#FFA500"},
	lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#626262"},
)

// theme holds one style per role the selector renders.
type theme struct {
	title lipgloss.Style // confirm heading
	ok    lipgloss.Style // track totals
	err   lipgloss.Style // load and preview failures
	warn  lipgloss.Style // empty selection
	help  lipgloss.Style // selection counter
}

func newTheme(heading, total, failure, caution, muted lipgloss.TerminalColor) *theme {
	base := lipgloss.NewStyle()
	return &theme{
		title: base.Foreground(heading).Bold(true).MarginBottom(1),
		ok:    base.Foreground(total).Bold(true),
		err:   base.Foreground(failure).Bold(true),
		warn:  base.Foreground(caution),
		help:  base.Foreground(muted).Italic(true),
	}
}
