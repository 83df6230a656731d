package termui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/HamletTheHamster/goat-explorer/internal/stats"
	"github.com/charmbracelet/glamour"
)

// RegressionMarkdown writes the fit as a markdown report: fit statistics,
// reference levels and a coefficient table.
func RegressionMarkdown(reg *stats.Regression) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# OLS regression of %s\n\n", reg.Response)

	b.WriteString("| statistic | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| observations | %d |\n", reg.N)
	fmt.Fprintf(&b, "| residual df | %d |\n", reg.DFResid)
	fmt.Fprintf(&b, "| R² | %s |\n", format(reg.R2, 3))
	fmt.Fprintf(&b, "| adjusted R² | %s |\n", format(reg.AdjR2, 3))
	fmt.Fprintf(&b, "| F | %s |\n", format(reg.F, 4))
	fmt.Fprintf(&b, "| P(F) | %s |\n", format(reg.FPValue, 3))
	fmt.Fprintf(&b, "| residual std err | %s |\n\n", format(reg.ResidualSE, 4))

	if len(reg.References) > 0 {
		vars := make([]string, 0, len(reg.References))
		for v := range reg.References {
			vars = append(vars, v)
		}
		sort.Strings(vars)
		b.WriteString("Reference levels:\n\n")
		for _, v := range vars {
			fmt.Fprintf(&b, "- **%s**: %s\n", v, reg.References[v])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Coefficients\n\n")
	b.WriteString("| term | coef | std err | t | P>\\|t\\| |\n|---|---:|---:|---:|---:|\n")
	for _, c := range reg.Terms {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			escapeCell(c.Name()), format(c.Estimate, 4), format(c.StdErr, 4), format(c.T, 3), format(c.P, 3))
	}
	return b.String()
}

// Markdown renders md for the terminal. style is a glamour style name, or
// "auto" to follow the terminal background.
func Markdown(md, style string, width int) (string, error) {
	opt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		opt = glamour.WithStylePath(style)
	}
	renderer, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

func format(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", digits, v)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
