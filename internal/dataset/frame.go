package dataset

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind classifies a column for chart selection.
type Kind int

const (
	Categorical Kind = iota
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Frame is a cleaned, immutable view of the shoe dataset.
type Frame struct {
	df     dataframe.DataFrame
	source string
}

// Empty returns a frame with no rows, used as the fallback when no data loaded.
func Empty(source string) *Frame {
	return &Frame{source: source}
}

// Source is the path or upload name the frame was read from.
func (f *Frame) Source() string { return f.source }

// WithSource returns a shallow copy tagged with a different source.
func (f *Frame) WithSource(source string) *Frame {
	return &Frame{df: f.df, source: source}
}

// Len is the number of rows.
func (f *Frame) Len() int {
	if f == nil || f.df.Ncol() == 0 {
		return 0
	}
	return f.df.Nrow()
}

// IsEmpty reports whether the frame has no rows.
func (f *Frame) IsEmpty() bool { return f.Len() == 0 }

// Columns lists the column names in file order.
func (f *Frame) Columns() []string {
	if f == nil || f.df.Ncol() == 0 {
		return nil
	}
	return f.df.Names()
}

// Has reports whether the frame carries col.
func (f *Frame) Has(col string) bool {
	for _, c := range f.Columns() {
		if c == col {
			return true
		}
	}
	return false
}

func (f *Frame) col(name string) (series.Series, error) {
	if !f.Has(name) {
		return series.Series{}, fmt.Errorf("%q: %w", name, ErrUnknownColumn)
	}
	return f.df.Col(name), nil
}

// Kind returns Numeric for int and float columns and Categorical otherwise.
func (f *Frame) Kind(col string) (Kind, error) {
	s, err := f.col(col)
	if err != nil {
		return Categorical, err
	}
	switch s.Type() {
	case series.Int, series.Float:
		return Numeric, nil
	default:
		return Categorical, nil
	}
}

// Floats returns the non-missing values of a numeric column.
func (f *Frame) Floats(col string) ([]float64, error) {
	s, err := f.col(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		v := e.Float()
		if math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Strings returns the non-missing values of a column as text.
func (f *Frame) Strings(col string) ([]string, error) {
	s, err := f.col(col)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		out = append(out, elemString(e))
	}
	return out, nil
}

// Cell is one value of a column. Num is NaN unless the column is numeric.
type Cell struct {
	Text    string
	Num     float64
	Missing bool
}

// Column returns every row of col, missing values included, so callers can
// align several columns row by row.
func (f *Frame) Column(col string) ([]Cell, error) {
	s, err := f.col(col)
	if err != nil {
		return nil, err
	}
	numeric := s.Type() == series.Int || s.Type() == series.Float
	out := make([]Cell, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = Cell{Num: math.NaN(), Missing: true}
			continue
		}
		c := Cell{Text: elemString(e), Num: math.NaN()}
		if numeric {
			c.Num = e.Float()
			c.Missing = math.IsNaN(c.Num)
		}
		out[i] = c
	}
	return out, nil
}

// Pairs returns aligned values of two numeric columns, skipping rows where
// either is missing.
func (f *Frame) Pairs(x, y string) (xs, ys []float64, err error) {
	sx, err := f.col(x)
	if err != nil {
		return nil, nil, err
	}
	sy, err := f.col(y)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < sx.Len(); i++ {
		ex, ey := sx.Elem(i), sy.Elem(i)
		if ex.IsNA() || ey.IsNA() {
			continue
		}
		vx, vy := ex.Float(), ey.Float()
		if math.IsNaN(vx) || math.IsNaN(vy) {
			continue
		}
		xs = append(xs, vx)
		ys = append(ys, vy)
	}
	return xs, ys, nil
}

// Groups splits a numeric column by the levels of a categorical one. Levels
// come back sorted.
func (f *Frame) Groups(cat, num string) (levels []string, groups map[string][]float64, err error) {
	sc, err := f.col(cat)
	if err != nil {
		return nil, nil, err
	}
	sn, err := f.col(num)
	if err != nil {
		return nil, nil, err
	}
	groups = make(map[string][]float64)
	for i := 0; i < sc.Len(); i++ {
		ec, en := sc.Elem(i), sn.Elem(i)
		if ec.IsNA() || en.IsNA() {
			continue
		}
		v := en.Float()
		if math.IsNaN(v) {
			continue
		}
		key := elemString(ec)
		if _, ok := groups[key]; !ok {
			levels = append(levels, key)
		}
		groups[key] = append(groups[key], v)
	}
	sort.Strings(levels)
	return levels, groups, nil
}

// Count is one entry of a value count.
type Count struct {
	Value string `json:"value"`
	N     int    `json:"n"`
}

// ValueCounts counts the non-missing values of col, most frequent first.
// Equal counts are ordered by value.
func (f *Frame) ValueCounts(col string) ([]Count, error) {
	values, err := f.Strings(col)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	out := make([]Count, 0, len(counts))
	for v, n := range counts {
		out = append(out, Count{Value: v, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Value < out[j].Value
	})
	return out, nil
}

// Levels returns the distinct non-missing values of col, sorted.
func (f *Frame) Levels(col string) ([]string, error) {
	values, err := f.Strings(col)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Equality selects rows where Column equals Value. An empty Value matches
// every row, the "All" choice of a dropdown.
type Equality struct {
	Column string
	Value  string
}

// Filter keeps the rows matching every equality.
func (f *Frame) Filter(filters ...Equality) (*Frame, error) {
	var fs []dataframe.F
	for _, eq := range filters {
		if eq.Value == "" {
			continue
		}
		kind, err := f.Kind(eq.Column)
		if err != nil {
			return nil, err
		}
		fs = append(fs, dataframe.F{
			Colname:    eq.Column,
			Comparator: series.CompFunc,
			Comparando: matcher(kind, eq.Value),
		})
	}
	if len(fs) == 0 || f.IsEmpty() {
		return f, nil
	}

	out := f.df.FilterAggregation(dataframe.And, fs...)
	if out.Err != nil {
		return nil, fmt.Errorf("failed to filter: %w", out.Err)
	}
	return &Frame{df: out, source: f.source}, nil
}

func matcher(kind Kind, value string) func(series.Element) bool {
	if kind == Numeric {
		want, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return func(series.Element) bool { return false }
		}
		return func(e series.Element) bool {
			return !e.IsNA() && e.Float() == want
		}
	}
	return func(e series.Element) bool {
		return !e.IsNA() && elemString(e) == value
	}
}

// Top returns the n best-ranked rows (ascending rank, ties in file order).
// n is clamped to the frame length.
func (f *Frame) Top(n int) (*Frame, error) {
	if n < 1 {
		return nil, fmt.Errorf("top-N must be positive, got %d", n)
	}
	if f.IsEmpty() {
		return nil, ErrEmpty
	}
	if !f.Has(Rank) {
		return nil, fmt.Errorf("%q: %w", Rank, ErrUnknownColumn)
	}

	sorted := f.df.Arrange(dataframe.Sort(Rank))
	if sorted.Err != nil {
		return nil, fmt.Errorf("failed to sort by rank: %w", sorted.Err)
	}
	n = min(n, sorted.Nrow())
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	out := sorted.Subset(idx)
	if out.Err != nil {
		return nil, fmt.Errorf("failed to slice top %d: %w", n, out.Err)
	}
	return &Frame{df: out, source: f.source}, nil
}

// WriteCSV writes the cleaned frame as CSV.
func (f *Frame) WriteCSV(w io.Writer) error {
	if f.IsEmpty() {
		return ErrEmpty
	}
	return f.df.WriteCSV(w)
}

// elemString renders integral floats without a fractional part so numeric
// columns read naturally in labels and filters.
func elemString(e series.Element) string {
	if e.Type() == series.Float {
		v := e.Float()
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return e.String()
}
