package server

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/HamletTheHamster/goat-explorer/internal/charts"
	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/stats"
	"github.com/HamletTheHamster/goat-explorer/internal/trend"
)

// filters reads repeated filter=column=value parameters. An empty value
// matches every row.
func filters(q url.Values) ([]dataset.Equality, error) {
	var out []dataset.Equality
	for _, raw := range q["filter"] {
		col, value, ok := strings.Cut(raw, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("filter %q is not column=value: %w", raw, errBadRequest)
		}
		out = append(out, dataset.Equality{Column: dataset.Canonical(col), Value: value})
	}
	return out, nil
}

// filtered applies the request's filters to f.
func filtered(f *dataset.Frame, q url.Values) (*dataset.Frame, error) {
	eqs, err := filters(q)
	if err != nil || len(eqs) == 0 {
		return f, err
	}
	return f.Filter(eqs...)
}

// intParam parses an optional positive integer parameter.
func intParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q: %w", name, raw, errBadRequest)
	}
	return n, nil
}

func boolParam(q url.Values, name string) bool {
	v, _ := strconv.ParseBool(q.Get(name))
	return v
}

// chartOptions reads bins, violin and trend on top of the configured defaults.
func (s *Server) chartOptions(q url.Values) (charts.Options, error) {
	opts := charts.DefaultOptions()
	opts.Bins = s.cfg.Charts.Bins

	bins, err := intParam(q, "bins", opts.Bins)
	if err != nil {
		return opts, err
	}
	if bins > charts.MaxBins {
		return opts, fmt.Errorf("%w, got %d: %w", charts.ErrTooManyBins, bins, errBadRequest)
	}
	opts.Bins = bins
	opts.Violin = boolParam(q, "violin")

	if raw := q.Get("trend"); raw != "" && raw != "none" {
		m, err := trend.ParseModel(raw)
		if err != nil {
			return opts, fmt.Errorf("%v: %w", err, errBadRequest)
		}
		opts.Trend = m
	}
	return opts, nil
}

// explorable lists the configured explorable columns the frame carries, in
// configured order.
func (s *Server) explorable(f *dataset.Frame) []string {
	var out []string
	for _, col := range s.cfg.Data.Explorable {
		if c := dataset.Canonical(col); f.Has(c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// column returns the named parameter or the first explorable column.
func (s *Server) column(f *dataset.Frame, q url.Values, name string, fallback int) string {
	if col := q.Get(name); col != "" {
		return dataset.Canonical(col)
	}
	cols := s.explorable(f)
	if len(cols) == 0 {
		return ""
	}
	return cols[min(fallback, len(cols)-1)]
}

// regressionSpec is the model a regression request asks for.
type regressionSpec struct {
	Response    string
	Categorical []string
	Numeric     []string
}

// regressionParams reads response, repeated categorical and numeric
// parameters. Without predictors every explorable categorical column is used.
func (s *Server) regressionParams(f *dataset.Frame, q url.Values) regressionSpec {
	spec := regressionSpec{Response: dataset.Rank}
	if r := q.Get("response"); r != "" {
		spec.Response = dataset.Canonical(r)
	}
	for _, c := range q["categorical"] {
		if c = dataset.Canonical(c); c != spec.Response {
			spec.Categorical = append(spec.Categorical, c)
		}
	}
	for _, c := range q["numeric"] {
		if c = dataset.Canonical(c); c != spec.Response {
			spec.Numeric = append(spec.Numeric, c)
		}
	}
	if len(spec.Categorical)+len(spec.Numeric) == 0 {
		for _, col := range s.explorable(f) {
			if kind, err := f.Kind(col); err == nil && kind == dataset.Categorical {
				spec.Categorical = append(spec.Categorical, col)
			}
		}
	}
	return spec
}

func fitRegression(f *dataset.Frame, spec regressionSpec) (*stats.Regression, error) {
	design, err := stats.NewDesign(f, spec.Response, spec.Categorical, spec.Numeric)
	if err != nil {
		return nil, err
	}
	return stats.FitOLS(design)
}

func (s *Server) regression(r *http.Request) (*stats.Regression, error) {
	f, err := s.frame(r)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	if f, err = filtered(f, q); err != nil {
		return nil, err
	}
	return fitRegression(f, s.regressionParams(f, q))
}
