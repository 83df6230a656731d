// Package server is the dashboard web UI and its JSON API.
package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net/http"
	"strconv"

	"github.com/HamletTheHamster/goat-explorer/internal/cache"
	"github.com/HamletTheHamster/goat-explorer/internal/charts"
	"github.com/HamletTheHamster/goat-explorer/internal/config"
	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/stats"
	"github.com/HamletTheHamster/goat-explorer/internal/store"
	"github.com/HamletTheHamster/goat-explorer/internal/trend"
	"github.com/rs/zerolog/log"
)

// errBadRequest marks errors caused by request parameters.
var errBadRequest = errors.New("bad request")

// errNoStore is returned by snapshot endpoints when no database is configured.
var errNoStore = errors.New("snapshot store not configured")

type Server struct {
	loader *cache.Loader
	store  *store.Store
	cfg    *config.Config
	pages  *template.Template
}

// NewServer builds a server over loader. st may be nil, in which case the
// snapshot endpoints answer 503.
func NewServer(loader *cache.Loader, st *store.Store, cfg *config.Config) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{loader: loader, store: st, cfg: cfg, pages: pages}, nil
}

func (s *Server) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.HistogramPage)
	mux.HandleFunc("GET /histogram", s.HistogramPage)
	mux.HandleFunc("GET /compare", s.ComparePage)
	mux.HandleFunc("GET /kpi", s.KPIPage)
	mux.HandleFunc("GET /regression", s.RegressionPage)

	mux.HandleFunc("GET /chart/histogram.png", s.HistogramChart)
	mux.HandleFunc("GET /chart/compare.png", s.CompareChart)
	mux.HandleFunc("GET /chart/coefficients.png", s.CoefficientsChart)

	mux.HandleFunc("GET /api/v0/columns", s.Columns)
	mux.HandleFunc("GET /api/v0/kpi", s.KPI)
	mux.HandleFunc("GET /api/v0/regression", s.Regression)
	mux.HandleFunc("POST /api/v0/dataset", s.UploadDataset)
	mux.HandleFunc("DELETE /api/v0/dataset", s.ResetDataset)
	mux.HandleFunc("GET /api/v0/snapshots", s.ListSnapshots)
	mux.HandleFunc("POST /api/v0/snapshots", s.SaveSnapshot)
	mux.HandleFunc("POST /api/v0/snapshots/{id}/load", s.LoadSnapshot)
	mux.HandleFunc("GET /health", s.HealthCheck)

	return mux
}

func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	f, err := s.loader.Get(r.Context())
	response := map[string]interface{}{
		"status": "ok",
		"rows":   f.Len(),
		"source": s.loader.Path(),
		"store":  "disabled",
	}
	if f != nil {
		response["source"] = f.Source()
	}
	if err != nil {
		response["dataset_error"] = err.Error()
	}
	if s.store != nil {
		response["store"] = s.store.Driver()
	}
	writeJSON(w, http.StatusOK, response)
}

// frame returns the current dataset. A missing file is not an error here:
// callers get the empty frame and decide.
func (s *Server) frame(r *http.Request) (*dataset.Frame, error) {
	f, err := s.loader.Get(r.Context())
	if err != nil && !errors.Is(err, dataset.ErrNotFound) {
		return nil, err
	}
	if f == nil {
		f = dataset.Empty(s.loader.Path())
	}
	return f, nil
}

func (s *Server) chartSize() charts.Size {
	return charts.SizeInches(s.cfg.Charts.WidthIn, s.cfg.Charts.HeightIn)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	if _, err := w.Write(png); err != nil {
		log.Debug().Err(err).Msg("Failed to write chart")
	}
}

// statusOf maps an error to the HTTP status it is reported with.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, dataset.ErrUnknownColumn),
		errors.Is(err, stats.ErrNotNumeric),
		errors.Is(err, stats.ErrNoPredictors),
		errors.Is(err, charts.ErrTooManyBins):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrEmpty),
		errors.Is(err, dataset.ErrNotFound):
		return http.StatusConflict
	case errors.Is(err, stats.ErrTooFew),
		errors.Is(err, stats.ErrSingular),
		errors.Is(err, trend.ErrTooFew):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNoSnapshot):
		return http.StatusNotFound
	case errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// number encodes NaN and infinities as null.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}
