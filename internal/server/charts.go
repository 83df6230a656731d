package server

import (
	"fmt"
	"net/http"

	"github.com/HamletTheHamster/goat-explorer/internal/charts"
	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"gonum.org/v1/plot"
)

// HistogramChart renders the distribution of ?col= as PNG.
func (s *Server) HistogramChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, r, func(f *dataset.Frame, opts charts.Options) (*plot.Plot, error) {
		col := s.column(f, r.URL.Query(), "col", 0)
		if col == "" {
			return nil, fmt.Errorf("no column to plot: %w", errBadRequest)
		}
		return charts.Histogram(f, col, opts)
	})
}

// CompareChart renders ?y= against ?x= as PNG. The chart kind is reported in
// the X-Chart-Kind header.
func (s *Server) CompareChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, r, func(f *dataset.Frame, opts charts.Options) (*plot.Plot, error) {
		q := r.URL.Query()
		x, y := s.column(f, q, "x", 0), s.column(f, q, "y", 1)
		if x == "" || y == "" {
			return nil, fmt.Errorf("x and y are required: %w", errBadRequest)
		}
		p, kind, err := charts.Compare(f, x, y, opts)
		if err == nil {
			w.Header().Set("X-Chart-Kind", string(kind))
		}
		return p, err
	})
}

// CoefficientsChart fits the requested regression and plots the coefficients
// of ?variable=, the first predictor by default.
func (s *Server) CoefficientsChart(w http.ResponseWriter, r *http.Request) {
	s.renderChart(w, r, func(f *dataset.Frame, opts charts.Options) (*plot.Plot, error) {
		q := r.URL.Query()
		reg, err := fitRegression(f, s.regressionParams(f, q))
		if err != nil {
			return nil, err
		}
		variable := dataset.Canonical(q.Get("variable"))
		if variable == "" {
			vars := reg.Variables()
			if len(vars) == 0 {
				return nil, fmt.Errorf("regression has no predictors: %w", errBadRequest)
			}
			variable = vars[0]
		}
		p, err := charts.Coefficients(reg, variable, opts)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, errBadRequest)
		}
		return p, nil
	})
}

// renderChart loads and filters the dataset, builds a chart and writes it as
// PNG.
func (s *Server) renderChart(
	w http.ResponseWriter,
	r *http.Request,
	build func(*dataset.Frame, charts.Options) (*plot.Plot, error),
) {
	f, err := s.frame(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	opts, err := s.chartOptions(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if f, err = filtered(f, q); err != nil {
		writeError(w, r, err)
		return
	}
	if f.IsEmpty() {
		writeError(w, r, dataset.ErrEmpty)
		return
	}

	p, err := build(f, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	png, err := charts.Encode(p, s.chartSize(), "png")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePNG(w, png)
}
