// Package termui renders dashboard output for the terminal: KPI cards with
// lipgloss and markdown reports through glamour.
package termui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#1f77b4")
	muted   = lipgloss.Color("#7f7f7f")
	border  = lipgloss.Color("#c7c7c7")
	warning = lipgloss.Color("#ff7f0e")
)

// Styles groups the lipgloss styles used by the renderers.
type Styles struct {
	Title   lipgloss.Style
	Card    lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Link    lipgloss.Style
	Warning lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			MarginBottom(1),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 2).
			MarginRight(1),

		Label: lipgloss.NewStyle().
			Foreground(muted),

		Value: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),

		Link: lipgloss.NewStyle().
			Foreground(accent).
			Underline(true),

		Warning: lipgloss.NewStyle().
			Foreground(warning).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(warning).
			PaddingLeft(1),
	}
}
