// Package gnuplot exports scatter charts through a gnuplot process.
//
// glot looks for gnuplot when the package is initialized and panics when it
// is missing, so only the goatx-gnuplot binary may import this package.
package gnuplot

import (
	"fmt"

	"github.com/Arafatk/glot"
	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/trend"
	"gonum.org/v1/gonum/floats"
)

// Points returns the complete (x, y) pairs of two numeric columns.
func Points(f *dataset.Frame, x, y string) (xs, ys []float64, err error) {
	for _, col := range []string{x, y} {
		kind, err := f.Kind(col)
		if err != nil {
			return nil, nil, err
		}
		if kind != dataset.Numeric {
			return nil, nil, fmt.Errorf("gnuplot export needs numeric columns, %s is %s", col, kind)
		}
	}
	xs, ys, err = f.Pairs(x, y)
	if err != nil {
		return nil, nil, err
	}
	if len(xs) == 0 {
		return nil, nil, dataset.ErrEmpty
	}
	return xs, ys, nil
}

// Scatter writes y against x to a PNG at out, with an optional fitted trend
// line.
func Scatter(f *dataset.Frame, x, y string, model trend.Model, out string) error {
	xs, ys, err := Points(f, x, y)
	if err != nil {
		return err
	}

	plot, err := glot.NewPlot(2, false, false)
	if err != nil {
		return fmt.Errorf("failed to start gnuplot: %w", err)
	}
	defer plot.Close()

	if err := plot.AddPointGroup(y, "points", [][]float64{xs, ys}); err != nil {
		return err
	}
	if model != "" {
		fit, err := trend.Fit(model, xs, ys)
		if err != nil {
			return err
		}
		cx, cy := fit.Curve(200, floats.Min(xs), floats.Max(xs))
		if err := plot.AddPointGroup(fit.Label(), "lines", [][]float64{cx, cy}); err != nil {
			return err
		}
	}
	plot.SetTitle(y + " vs " + x)
	plot.SetXLabel(x)
	plot.SetYLabel(y)
	if err := plot.SavePlot(out); err != nil {
		return fmt.Errorf("failed to save %s: %w", out, err)
	}
	return nil
}
