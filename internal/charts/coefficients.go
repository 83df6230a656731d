package charts

import (
	"fmt"

	"github.com/HamletTheHamster/goat-explorer/internal/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// Coefficients plots the fitted coefficients of one predictor variable, one
// bar per dummy level relative to the reference level.
func Coefficients(reg *stats.Regression, variable string, opts Options) (*plot.Plot, error) {
	coefs := reg.Coefficients(variable)
	if len(coefs) == 0 {
		return nil, fmt.Errorf("no coefficients for %q", variable)
	}

	ylabel := "Effect on " + reg.Response
	if ref, ok := reg.References[variable]; ok {
		ylabel += " vs " + ref
	}
	p := prepPlot("Coefficients for "+variable, variable, ylabel, opts.Style)

	values := make(plotter.Values, len(coefs))
	labels := make([]string, len(coefs))
	for i, c := range coefs {
		values[i] = c.Estimate
		labels[i] = c.Level
		if labels[i] == "" {
			labels[i] = c.Variable
		}
	}
	bars, err := plotter.NewBarChart(values, barWidth(len(coefs)))
	if err != nil {
		return nil, err
	}
	bars.Color = palette(2, false)
	bars.LineStyle.Color = palette(2, true)
	p.Add(bars, plotter.NewGrid())
	p.NominalX(labels...)
	rotateXLabels(p)
	return p, nil
}
