package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/stats"
	"github.com/HamletTheHamster/goat-explorer/internal/trend"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// noData is shown on every page while the dataset is empty.
const noData = "No data loaded. Please check your CSV file."

const noMatch = "No rows match the selected filters."

func parsePages() (*template.Template, error) {
	t, err := template.New("pages").Funcs(template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
		"fixed": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

type tab struct {
	Path  string
	Title string
}

var tabs = []tab{
	{"/histogram", "Histograms"},
	{"/compare", "Compare"},
	{"/kpi", "Top shoes"},
	{"/regression", "Regression"},
}

type pageData struct {
	Tab       string
	Tabs      []tab
	Source    string
	Rows      int
	Warning   string
	LoadError string
	Error     string

	Filters []filterControl
	Hidden  []string

	Columns []string
	Column  string
	X, Y    string
	Violin  bool
	Trend   string
	Models  []string
	Chart   string

	Top         int
	KPI         *stats.KPI
	Variables   []string
	Variable    string
	Summary     string
	Predictors  []string
	Categorical []string
	Numeric     []string
}

// filterControl is one filter dropdown. Selected is "" for All.
type filterControl struct {
	Column   string
	Levels   []string
	Selected string
}

// filterControls builds a dropdown per explorable categorical column of the
// loaded frame. Filters on other columns are carried as hidden inputs.
func (s *Server) filterControls(f *dataset.Frame, q url.Values) ([]filterControl, []string) {
	var controls []filterControl
	for _, col := range s.explorable(f) {
		if kind, err := f.Kind(col); err != nil || kind != dataset.Categorical {
			continue
		}
		levels, err := f.Levels(col)
		if err != nil {
			continue
		}
		levels = slices.DeleteFunc(levels, func(l string) bool { return l == "" })
		controls = append(controls, filterControl{Column: col, Levels: levels})
	}

	var hidden []string
	for _, raw := range q["filter"] {
		col, value, _ := strings.Cut(raw, "=")
		i := slices.IndexFunc(controls, func(c filterControl) bool { return c.Column == dataset.Canonical(col) })
		if i < 0 {
			hidden = append(hidden, raw)
			continue
		}
		controls[i].Selected = value
	}
	return controls, hidden
}

// page loads the dataset, applies the request's filters and fills the fields
// every page shows. ok is false when nothing is loaded. A filter that fails or
// matches no rows sets Error and leaves f unfiltered so the forms still work.
func (s *Server) page(r *http.Request, current string) (*dataset.Frame, *pageData, bool) {
	data := &pageData{Tab: current, Tabs: tabs}
	f, err := s.loader.Get(r.Context())
	if err != nil {
		data.LoadError = err.Error()
		if !errors.Is(err, dataset.ErrNotFound) {
			log.Error().Err(err).Msg("Dataset unavailable")
		}
	}
	if f == nil {
		f = dataset.Empty(s.loader.Path())
	}
	data.Source, data.Rows = f.Source(), f.Len()
	if f.IsEmpty() {
		data.Warning = noData
		return f, data, false
	}
	data.Columns = s.explorable(f)

	q := r.URL.Query()
	data.Filters, data.Hidden = s.filterControls(f, q)
	sub, err := filtered(f, q)
	switch {
	case err != nil:
		data.Error = err.Error()
	case sub.IsEmpty():
		data.Error = noMatch
	default:
		f = sub
	}
	return f, data, true
}

func (s *Server) render(w http.ResponseWriter, data *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, "layout.html", data); err != nil {
		log.Error().Err(err).Str("tab", data.Tab).Msg("Failed to render page")
	}
}

// chartURL keeps the page's filters on the chart request.
func chartURL(path string, q url.Values, set url.Values) string {
	out := url.Values{}
	for _, f := range q["filter"] {
		out.Add("filter", f)
	}
	for k, vs := range set {
		for _, v := range vs {
			if v != "" {
				out.Add(k, v)
			}
		}
	}
	return path + "?" + out.Encode()
}

func (s *Server) HistogramPage(w http.ResponseWriter, r *http.Request) {
	f, data, ok := s.page(r, "/histogram")
	if ok {
		q := r.URL.Query()
		data.Column = s.column(f, q, "col", 0)
		if data.Error == "" {
			data.Chart = chartURL("/chart/histogram.png", q, url.Values{"col": {data.Column}})
		}
	}
	s.render(w, data)
}

func (s *Server) ComparePage(w http.ResponseWriter, r *http.Request) {
	f, data, ok := s.page(r, "/compare")
	if ok {
		q := r.URL.Query()
		data.X, data.Y = s.column(f, q, "x", 0), s.column(f, q, "y", 1)
		data.Violin = boolParam(q, "violin")
		data.Trend = q.Get("trend")
		for _, m := range trend.Models() {
			data.Models = append(data.Models, string(m))
		}
		if data.Error == "" {
			data.Chart = chartURL("/chart/compare.png", q, url.Values{
				"x":      {data.X},
				"y":      {data.Y},
				"violin": {strconv.FormatBool(data.Violin)},
				"trend":  {data.Trend},
			})
		}
	}
	s.render(w, data)
}

// KPIPage summarises the best-ranked shoes of the filtered frame.
func (s *Server) KPIPage(w http.ResponseWriter, r *http.Request) {
	f, data, ok := s.page(r, "/kpi")
	data.Top = s.cfg.Charts.TopN
	if ok && data.Error == "" {
		top, err := intParam(r.URL.Query(), "top", s.cfg.Charts.TopN)
		if err != nil {
			data.Error = err.Error()
		} else {
			data.Top = top
		}
		kpi, err := stats.Summarize(f, data.Top)
		if err != nil {
			data.Error = err.Error()
		} else {
			data.KPI = &kpi
		}
	}
	s.render(w, data)
}

// RegressionPage fits the model on the filtered frame, the same rows the
// coefficient chart uses.
func (s *Server) RegressionPage(w http.ResponseWriter, r *http.Request) {
	f, data, ok := s.page(r, "/regression")
	if ok {
		q := r.URL.Query()
		spec := s.regressionParams(f, q)
		data.Categorical, data.Numeric = spec.Categorical, spec.Numeric
		data.Predictors = slices.Concat(spec.Categorical, spec.Numeric)
		if data.Error != "" {
			s.render(w, data)
			return
		}
		reg, err := fitRegression(f, spec)
		if err != nil {
			data.Error = err.Error()
		} else {
			data.Summary = reg.Summary()
			data.Variables = reg.Variables()
			data.Variable = dataset.Canonical(q.Get("variable"))
			if data.Variable == "" && len(data.Variables) > 0 {
				data.Variable = data.Variables[0]
			}
			set := url.Values{"variable": {data.Variable}, "response": {spec.Response}}
			set["categorical"] = spec.Categorical
			set["numeric"] = spec.Numeric
			data.Chart = chartURL("/chart/coefficients.png", q, set)
		}
	}
	s.render(w, data)
}
