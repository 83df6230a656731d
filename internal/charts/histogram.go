package charts

import (
	"errors"
	"fmt"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/stats"
	"github.com/HamletTheHamster/goat-explorer/internal/trend"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Options tune chart construction.
type Options struct {
	// Bins is the histogram bin count.
	Bins int
	// Violin draws violins instead of boxes for categorical/numeric pairs.
	Violin bool
	// Trend overlays a fitted curve on scatter plots when set.
	Trend trend.Model
	Style Style
}

// MaxBins bounds Options.Bins.
const MaxBins = 500

// ErrTooManyBins is returned for a bin count above MaxBins.
var ErrTooManyBins = fmt.Errorf("histogram bins must be at most %d", MaxBins)

// DefaultOptions are the dashboard defaults.
func DefaultOptions() Options {
	return Options{Bins: 20}
}

// Histogram plots the distribution of one column. Numeric columns get a count
// histogram with a density curve scaled to counts, categorical columns a bar
// per value, most frequent first.
func Histogram(f *dataset.Frame, col string, opts Options) (*plot.Plot, error) {
	if f.IsEmpty() {
		return nil, dataset.ErrEmpty
	}
	kind, err := f.Kind(col)
	if err != nil {
		return nil, err
	}

	if SingleKind(kind) == CountChart {
		return countPlot(f, col, opts)
	}
	return histPlot(f, col, opts)
}

func histPlot(f *dataset.Frame, col string, opts Options) (*plot.Plot, error) {
	values, err := f.Floats(col)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s has no values: %w", col, dataset.ErrEmpty)
	}
	bins := opts.Bins
	if bins < 1 {
		bins = DefaultOptions().Bins
	}
	if bins > MaxBins {
		return nil, fmt.Errorf("%w, got %d", ErrTooManyBins, bins)
	}

	p := prepPlot("Histogram of "+col, col, "Frequency", opts.Style)

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, fmt.Errorf("failed to bin %s: %w", col, err)
	}
	h.FillColor = palette(0, false)
	h.LineStyle.Color = palette(0, true)
	h.LineStyle.Width = vg.Points(1)
	p.Add(h)

	kde, err := stats.NewKDE(values)
	switch {
	case errors.Is(err, stats.ErrTooFew):
		log.Debug().Str("column", col).Msg("Skipping density curve")
	case err != nil:
		return nil, err
	default:
		log.Debug().Str("column", col).Float64("bandwidth", kde.Bandwidth()).Msg("Fitted density curve")
		xs, ys := kde.Curve(200, float64(len(values))*h.Width)
		line, err := plotter.NewLine(xyPairs(xs, ys))
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = palette(0, true)
		line.LineStyle.Width = vg.Points(2)
		p.Add(line)
	}

	return p, enclose(p)
}

func countPlot(f *dataset.Frame, col string, opts Options) (*plot.Plot, error) {
	counts, err := f.ValueCounts(col)
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%s has no values: %w", col, dataset.ErrEmpty)
	}

	p := prepPlot("Histogram of "+col, col, "Count", opts.Style)

	values := make(plotter.Values, len(counts))
	labels := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.N)
		labels[i] = c.Value
	}
	bars, err := plotter.NewBarChart(values, barWidth(len(counts)))
	if err != nil {
		return nil, err
	}
	bars.Color = palette(0, false)
	bars.LineStyle.Color = palette(0, true)
	p.Add(bars)
	p.NominalX(labels...)
	rotateXLabels(p)

	return p, nil
}

// barWidth narrows bars as categories multiply so a default-size chart stays
// readable.
func barWidth(n int) vg.Length {
	switch {
	case n <= 10:
		return vg.Points(24)
	case n <= 30:
		return vg.Points(12)
	default:
		return vg.Points(5)
	}
}

func xyPairs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	return pts
}
