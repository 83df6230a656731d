package charts

import (
	"fmt"
	"sort"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/stats"
	"github.com/HamletTheHamster/goat-explorer/internal/trend"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Compare plots y against x, choosing the chart from the two column kinds.
func Compare(f *dataset.Frame, x, y string, opts Options) (*plot.Plot, Kind, error) {
	if f.IsEmpty() {
		return nil, "", dataset.ErrEmpty
	}
	kx, err := f.Kind(x)
	if err != nil {
		return nil, "", err
	}
	ky, err := f.Kind(y)
	if err != nil {
		return nil, "", err
	}

	kind := PairKind(kx, ky, opts.Violin)
	var p *plot.Plot
	switch kind {
	case ScatterChart:
		p, err = scatterPlot(f, x, y, opts)
	case CrosstabChart:
		p, err = crosstabPlot(f, x, y, opts)
	default:
		p, err = groupedPlot(f, x, y, kx == dataset.Numeric, kind == ViolinChart, opts)
	}
	if err != nil {
		return nil, kind, err
	}
	return p, kind, nil
}

func scatterPlot(f *dataset.Frame, x, y string, opts Options) (*plot.Plot, error) {
	xs, ys, err := f.Pairs(x, y)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("no rows with both %s and %s: %w", x, y, dataset.ErrEmpty)
	}

	p := prepPlot(y+" vs "+x, x, y, opts.Style)

	s, err := plotter.NewScatter(xyPairs(xs, ys))
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = palette(2, true)
	s.GlyphStyle.Radius = vg.Points(2.5)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s)

	if opts.Trend != "" {
		fit, err := trend.Fit(opts.Trend, xs, ys)
		if err != nil {
			// the points are still worth showing without the curve
			log.Warn().Err(err).Str("model", string(opts.Trend)).Msg("Trend fit failed")
		} else {
			cx, cy := fit.Curve(200, floats.Min(xs), floats.Max(xs))
			line, err := plotter.NewLine(xyPairs(cx, cy))
			if err != nil {
				return nil, err
			}
			line.LineStyle.Color = palette(1, true)
			line.LineStyle.Width = vg.Points(2)
			p.Add(line)
			p.Legend.Add(fit.Label(), line)
		}
	}

	return p, enclose(p)
}

// groupedPlot draws one box or violin per level of the categorical column.
// When the numeric column is on x the groups run horizontally.
func groupedPlot(f *dataset.Frame, x, y string, horizontal, violin bool, opts Options) (*plot.Plot, error) {
	cat, num := x, y
	if horizontal {
		cat, num = y, x
	}
	levels, groups, err := f.Groups(cat, num)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, fmt.Errorf("no rows with both %s and %s: %w", cat, num, dataset.ErrEmpty)
	}

	p := prepPlot(num+" by "+cat, x, y, opts.Style)

	for i, level := range levels {
		values := groups[level]
		if violin {
			v, err := violinPlotters(values, float64(i), horizontal, i)
			if err != nil {
				return nil, fmt.Errorf("violin for %s: %w", level, err)
			}
			p.Add(v...)
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(values))
		if err != nil {
			return nil, fmt.Errorf("box for %s: %w", level, err)
		}
		b.FillColor = palette(i, false)
		b.Horizontal = horizontal
		p.Add(b)
	}

	if horizontal {
		p.NominalY(levels...)
	} else {
		p.NominalX(levels...)
		rotateXLabels(p)
	}
	return p, nil
}

// violinPlotters mirrors a group's density around loc, scaled so the widest
// point spans 0.8 of the slot, and marks the median. Groups too small for a
// density fall back to a tick at each value.
func violinPlotters(values []float64, loc float64, horizontal bool, brush int) ([]plot.Plotter, error) {
	orient := func(across, along float64) plotter.XY {
		if horizontal {
			return plotter.XY{X: along, Y: across}
		}
		return plotter.XY{X: across, Y: along}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	mark, err := plotter.NewScatter(plotter.XYs{orient(loc, median)})
	if err != nil {
		return nil, err
	}
	mark.GlyphStyle.Color = palette(brush, true)
	mark.GlyphStyle.Radius = vg.Points(3)
	mark.GlyphStyle.Shape = draw.CircleGlyph{}

	kde, err := stats.NewKDE(values)
	if err != nil {
		tick, err := plotter.NewLine(plotter.XYs{orient(loc-.2, median), orient(loc+.2, median)})
		if err != nil {
			return nil, err
		}
		tick.LineStyle.Color = palette(brush, true)
		tick.LineStyle.Width = vg.Points(2)
		return []plot.Plotter{tick, mark}, nil
	}

	along, dens := kde.Curve(100, 1)
	peak := floats.Max(dens)
	ring := make(plotter.XYs, 0, 2*len(along))
	for i := range along {
		ring = append(ring, orient(loc-.4*dens[i]/peak, along[i]))
	}
	for i := len(along) - 1; i >= 0; i-- {
		ring = append(ring, orient(loc+.4*dens[i]/peak, along[i]))
	}
	poly, err := plotter.NewPolygon(ring)
	if err != nil {
		return nil, err
	}
	poly.Color = palette(brush, false)
	poly.LineStyle.Color = palette(brush, true)
	return []plot.Plotter{poly, mark}, nil
}

// crosstabPlot counts rows per (x, y) pair as bars grouped by x, one colour
// per y level.
func crosstabPlot(f *dataset.Frame, x, y string, opts Options) (*plot.Plot, error) {
	xc, err := f.Column(x)
	if err != nil {
		return nil, err
	}
	yc, err := f.Column(y)
	if err != nil {
		return nil, err
	}

	type pair struct{ x, y string }
	counts := make(map[pair]int)
	xSeen, ySeen := make(map[string]bool), make(map[string]bool)
	var xLevels, hues []string
	for i := range xc {
		if xc[i].Missing || yc[i].Missing {
			continue
		}
		k := pair{xc[i].Text, yc[i].Text}
		counts[k]++
		if !xSeen[k.x] {
			xSeen[k.x] = true
			xLevels = append(xLevels, k.x)
		}
		if !ySeen[k.y] {
			ySeen[k.y] = true
			hues = append(hues, k.y)
		}
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no rows with both %s and %s: %w", x, y, dataset.ErrEmpty)
	}
	sort.Strings(xLevels)
	sort.Strings(hues)

	p := prepPlot(y+" by "+x, x, "Count", opts.Style)

	w := vg.Points(max(2, 36/float64(len(hues))))
	for j, hue := range hues {
		values := make(plotter.Values, len(xLevels))
		for i, level := range xLevels {
			values[i] = float64(counts[pair{level, hue}])
		}
		bars, err := plotter.NewBarChart(values, w)
		if err != nil {
			return nil, err
		}
		bars.Color = palette(j, false)
		bars.LineStyle.Color = palette(j, true)
		bars.Offset = vg.Length(float64(j)-float64(len(hues)-1)/2) * w
		p.Add(bars)
		p.Legend.Add(hue, bars)
	}
	p.NominalX(xLevels...)
	rotateXLabels(p)
	return p, nil
}
