package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"github.com/HamletTheHamster/goat-explorer/internal/stats"
	"github.com/HamletTheHamster/goat-explorer/internal/store"
	"github.com/rs/zerolog/log"
)

type columnInfo struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Explorable bool   `json:"explorable"`
}

// Columns lists the dataset's columns and their kinds.
func (s *Server) Columns(w http.ResponseWriter, r *http.Request) {
	f, err := s.frame(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	explorable := map[string]bool{}
	for _, col := range s.explorable(f) {
		explorable[col] = true
	}

	cols := []columnInfo{}
	for _, name := range f.Columns() {
		kind, err := f.Kind(name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		cols = append(cols, columnInfo{Name: name, Kind: kind.String(), Explorable: explorable[name]})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source":  f.Source(),
		"rows":    f.Len(),
		"columns": cols,
	})
}

// KPI summarises the ?top= best-ranked shoes.
func (s *Server) KPI(w http.ResponseWriter, r *http.Request) {
	f, err := s.frame(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	n, err := intParam(q, "top", s.cfg.Charts.TopN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if f, err = filtered(f, q); err != nil {
		writeError(w, r, err)
		return
	}
	kpi, err := stats.Summarize(f, n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kpi)
}

type coefficientJSON struct {
	Term     string `json:"term"`
	Variable string `json:"variable"`
	Level    string `json:"level,omitempty"`
	Estimate number `json:"estimate"`
	StdErr   number `json:"std_err"`
	T        number `json:"t"`
	P        number `json:"p"`
}

type regressionJSON struct {
	Response   string            `json:"response"`
	N          int               `json:"n"`
	DFResid    int               `json:"df_resid"`
	R2         number            `json:"r2"`
	AdjR2      number            `json:"adj_r2"`
	F          number            `json:"f"`
	FPValue    number            `json:"f_p_value"`
	ResidualSE number            `json:"residual_se"`
	References map[string]string `json:"references"`
	Terms      []coefficientJSON `json:"terms"`
	Summary    string            `json:"summary"`
}

func toRegressionJSON(reg *stats.Regression) regressionJSON {
	out := regressionJSON{
		Response:   reg.Response,
		N:          reg.N,
		DFResid:    reg.DFResid,
		R2:         number(reg.R2),
		AdjR2:      number(reg.AdjR2),
		F:          number(reg.F),
		FPValue:    number(reg.FPValue),
		ResidualSE: number(reg.ResidualSE),
		References: reg.References,
		Summary:    reg.Summary(),
	}
	for _, c := range reg.Terms {
		out.Terms = append(out.Terms, coefficientJSON{
			Term:     c.Name(),
			Variable: c.Variable,
			Level:    c.Level,
			Estimate: number(c.Estimate),
			StdErr:   number(c.StdErr),
			T:        number(c.T),
			P:        number(c.P),
		})
	}
	return out
}

// Regression fits OLS of ?response= (rank by default) on the requested
// predictors.
func (s *Server) Regression(w http.ResponseWriter, r *http.Request) {
	reg, err := s.regression(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegressionJSON(reg))
}

// UploadDataset replaces the served dataset with an uploaded CSV or zip. Form
// uploads from the UI are redirected back to the page they came from.
func (s *Server) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadSize)
	defer r.Body.Close()

	name, body, err := readUpload(r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
			return
		}
		writeError(w, r, err)
		return
	}

	f, err := parseUpload(name, body, s.loader.Options())
	if err != nil {
		writeError(w, r, fmt.Errorf("%v: %w", err, errBadRequest))
		return
	}
	s.loader.Replace(f)

	if back := r.FormValue("redirect"); strings.HasPrefix(back, "/") && !strings.HasPrefix(back, "//") {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source":  f.Source(),
		"rows":    f.Len(),
		"columns": f.Columns(),
	})
}

// ResetDataset drops any uploaded dataset and goes back to the data file.
func (s *Server) ResetDataset(w http.ResponseWriter, r *http.Request) {
	s.loader.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// readUpload returns the uploaded file name and bytes, from a multipart form
// field "file" or from the raw request body.
func readUpload(r *http.Request) (string, []byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("failed to read form file: %w", err)
		}
		defer file.Close()
		body, err := io.ReadAll(file)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read upload: %w", err)
		}
		return header.Filename, body, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read request body: %w", err)
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.csv"
		if r.Header.Get("Content-Type") == "application/zip" {
			name = "upload.zip"
		}
	}
	return name, body, nil
}

var zipMagic = []byte("PK\x03\x04")

func parseUpload(name string, body []byte, opts dataset.Options) (*dataset.Frame, error) {
	if len(body) == 0 {
		return nil, errors.New("empty upload")
	}
	if bytes.HasPrefix(body, zipMagic) || strings.EqualFold(path.Ext(name), ".zip") {
		f, err := dataset.ReadZip(body, opts)
		if err != nil {
			return nil, err
		}
		return f.WithSource(name + ":" + f.Source()), nil
	}
	f, err := dataset.Read(bytes.NewReader(body), opts)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("name", name).Int("bytes", len(body)).Msg("Parsed upload")
	return f.WithSource(name), nil
}

// ListSnapshots lists stored snapshots, newest first.
func (s *Server) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, errNoStore)
		return
	}
	snaps, err := s.store.Snapshots(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []store.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

// SaveSnapshot stores the dataset currently served.
func (s *Server) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, errNoStore)
		return
	}
	f, err := s.frame(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.store.SaveSnapshot(r.Context(), f, s.loader.Options().Reference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// LoadSnapshot serves a stored snapshot in place of the data file until the
// next reset.
func (s *Server) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, r, errNoStore)
		return
	}
	f, err := s.store.LoadSnapshot(r.Context(), r.PathValue("id"), s.loader.Options())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.loader.Replace(f)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source": f.Source(),
		"rows":   f.Len(),
	})
}
