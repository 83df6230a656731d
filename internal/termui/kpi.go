package termui

import (
	"fmt"
	"strings"

	"github.com/HamletTheHamster/goat-explorer/internal/stats"
	"github.com/charmbracelet/lipgloss"
)

// card is one labelled KPI value.
func (s Styles) card(label, value string) string {
	return s.Card.Render(s.Label.Render(label) + "\n" + s.Value.Render(value))
}

// KPICards renders the KPI as a row of cards followed by the best-ranked
// shoe and its product link.
func (s Styles) KPICards(kpi stats.KPI) string {
	color := kpi.TopColor
	if color == "" {
		color = "n/a"
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		s.card("Max price", fmt.Sprintf("$%.2f", kpi.MaxPrice)),
		s.card("Mean price", fmt.Sprintf("$%.2f", kpi.MeanPrice)),
		s.card("Mean rank", fmt.Sprintf("%.2f", kpi.MeanRank)),
		s.card("Most common colour", color),
	)

	var b strings.Builder
	b.WriteString(s.Title.Render(fmt.Sprintf("Top %d shoes", kpi.N)))
	b.WriteString("\n")
	b.WriteString(row)
	b.WriteString("\n")
	if kpi.TopShoe != "" {
		b.WriteString(s.Label.Render("Best ranked: ") + kpi.TopShoe)
		if kpi.TopLink != "" {
			b.WriteString("  " + s.Link.Render(kpi.TopLink))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// NoData renders the empty dataset warning with the load error, if any.
func (s Styles) NoData(err error) string {
	msg := "No data loaded. Please check your CSV file."
	if err != nil {
		msg += "\n" + err.Error()
	}
	return s.Warning.Render(msg) + "\n"
}
