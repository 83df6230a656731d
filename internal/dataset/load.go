package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned (wrapped) by Load when the data file does not
	// exist. The accompanying Frame is empty and usable.
	ErrNotFound = errors.New("dataset file not found")

	// ErrUnknownColumn is returned for a column the frame does not carry.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrEmpty is returned when an operation needs at least one row.
	ErrEmpty = errors.New("dataset is empty")
)

// Options controls cleaning.
type Options struct {
	// Reference is the date daysfrommarch is measured from.
	Reference time.Time
	// Required lists the columns whose missing values drop a row.
	Required []string
}

// DefaultReference is 2025-03-31, the date daysfrommarch counts from.
var DefaultReference = time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)

// DefaultOptions returns the cleaning options used by the dashboard.
func DefaultOptions() Options {
	return Options{
		Reference: DefaultReference,
		Required:  []string{Rank, Price, DaysFromMarch},
	}
}

// Load reads and cleans the CSV at path. A missing file returns an empty
// frame together with an error wrapping ErrNotFound.
func Load(path string, opts Options) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("Data file not found")
			return Empty(path), fmt.Errorf("the file '%s' was not found: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	frame, err := Read(f, opts)
	if err != nil {
		return nil, err
	}
	frame.source = path
	return frame, nil
}

// ReadZip reads the first .csv member of a zip archive.
func ReadZip(data []byte, opts Options) (*Frame, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read zip: %w", err)
	}

	var csvFile *zip.File
	for _, file := range zr.File {
		if strings.HasSuffix(strings.ToLower(file.Name), ".csv") {
			csvFile = file
			break
		}
	}
	if csvFile == nil {
		names := make([]string, len(zr.File))
		for i, file := range zr.File {
			names[i] = file.Name
		}
		return nil, fmt.Errorf("CSV file not found in zip. Files in archive: %v", names)
	}

	rc, err := csvFile.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer rc.Close()

	frame, err := Read(rc, opts)
	if err != nil {
		return nil, err
	}
	frame.source = csvFile.Name
	return frame, nil
}

// Read parses CSV from r and cleans it: aliases are normalised, release dates
// parsed, daysfrommarch derived and rows missing a required value dropped.
func Read(r io.Reader, opts Options) (*Frame, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return FromRecords(records, opts)
}

// FromRecords builds a cleaned frame from CSV records, the first being the header.
func FromRecords(records [][]string, opts Options) (*Frame, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("failed to read CSV: no header row")
	}
	header := append([]string(nil), records[0]...)
	normalizeHeader(header)

	rows := make([][]string, 0, len(records))
	rows = append(rows, header)
	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("invalid CSV format at line %d: expected %d fields, got %d", i+2, len(header), len(rec))
		}
		rows = append(rows, rec)
	}

	if len(rows) == 1 {
		log.Debug().Msg("Dataset has a header but no rows")
		return &Frame{}, nil
	}

	df := dataframe.LoadRecords(rows,
		dataframe.NaNValues(nanValues),
		dataframe.WithTypes(columnTypes(header)),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to load records: %w", df.Err)
	}

	raw := df.Nrow()
	df, err := deriveDays(df, opts.Reference)
	if err != nil {
		return nil, err
	}
	df, err = dropIncomplete(df, opts.Required)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("rows", raw).
		Int("kept", df.Nrow()).
		Int("columns", df.Ncol()).
		Msg("Loaded dataset")

	return &Frame{df: df}, nil
}

func columnTypes(header []string) map[string]series.Type {
	types := make(map[string]series.Type)
	for _, h := range header {
		for _, c := range textColumns {
			if h == c {
				types[h] = series.String
			}
		}
		for _, c := range numericColumns {
			if h == c {
				types[h] = series.Float
			}
		}
	}
	return types
}

// deriveDays adds daysfrommarch. A frame without a release date column gets
// an all-missing column so the required-column check drops every row, the
// same outcome as every date failing to parse.
func deriveDays(df dataframe.DataFrame, ref time.Time) (dataframe.DataFrame, error) {
	if ref.IsZero() {
		ref = DefaultReference
	}

	days := make([]string, df.Nrow())
	dates := df.Col(ReleaseDate)
	for i := range days {
		days[i] = "NaN"
		if dates.Err != nil {
			continue
		}
		e := dates.Elem(i)
		if e.IsNA() {
			continue
		}
		if t, ok := ParseDate(e.String()); ok {
			days[i] = strconv.Itoa(DaysBetween(t, ref))
		}
	}

	out := df.Mutate(series.New(days, series.Int, DaysFromMarch))
	if out.Err != nil {
		return df, fmt.Errorf("failed to derive %s: %w", DaysFromMarch, out.Err)
	}
	return out, nil
}

func dropIncomplete(df dataframe.DataFrame, required []string) (dataframe.DataFrame, error) {
	if len(required) == 0 {
		return df, nil
	}

	filters := make([]dataframe.F, 0, len(required))
	for _, col := range required {
		if s := df.Col(col); s.Err != nil {
			return df, fmt.Errorf("required column %q: %w", col, ErrUnknownColumn)
		}
		filters = append(filters, dataframe.F{
			Colname:    col,
			Comparator: series.CompFunc,
			Comparando: func(e series.Element) bool { return !e.IsNA() },
		})
	}

	out := df.FilterAggregation(dataframe.And, filters...)
	if out.Err != nil {
		return df, fmt.Errorf("failed to drop incomplete rows: %w", out.Err)
	}
	return out, nil
}
