package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/HamletTheHamster/goat-explorer/internal/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrSingular is returned when the design matrix is rank deficient or the
	// response has no variance.
	ErrSingular = errors.New("singular design")

	// ErrNoPredictors is returned when no predictor column varies.
	ErrNoPredictors = errors.New("no usable predictors")

	// ErrNotNumeric is returned for a numeric role given a categorical column.
	ErrNotNumeric = errors.New("column is not numeric")
)

// Intercept names the constant term.
const Intercept = "Intercept"

// Term describes one column of a design matrix. Level is empty for the
// intercept and numeric predictors.
type Term struct {
	Variable string `json:"variable"`
	Level    string `json:"level,omitempty"`
}

// Name is the dummy column name, Variable_Level for indicators.
func (t Term) Name() string {
	if t.Level == "" {
		return t.Variable
	}
	return t.Variable + "_" + t.Level
}

// Design is a regression problem: y on the columns of X.
type Design struct {
	Response string
	Terms    []Term
	X        *mat.Dense
	Y        []float64
	// References maps each categorical predictor to its dropped level.
	References map[string]string
}

// NewDesign one-hot encodes the categorical predictors, dropping each one's
// first level in sorted order as the reference, and appends the numeric
// predictors after an intercept. Rows missing any used value are skipped.
func NewDesign(f *dataset.Frame, response string, categorical, numeric []string) (*Design, error) {
	if f.IsEmpty() {
		return nil, dataset.ErrEmpty
	}
	if len(categorical)+len(numeric) == 0 {
		return nil, ErrNoPredictors
	}
	for _, col := range append([]string{response}, numeric...) {
		kind, err := f.Kind(col)
		if err != nil {
			return nil, err
		}
		if kind != dataset.Numeric {
			return nil, fmt.Errorf("%q: %w", col, ErrNotNumeric)
		}
	}
	for _, col := range append(slices.Clone(categorical), numeric...) {
		if col == response {
			return nil, fmt.Errorf("%q is both response and predictor", col)
		}
	}

	y, err := f.Column(response)
	if err != nil {
		return nil, err
	}
	cats := make([][]dataset.Cell, len(categorical))
	for i, col := range categorical {
		if cats[i], err = f.Column(col); err != nil {
			return nil, err
		}
	}
	nums := make([][]dataset.Cell, len(numeric))
	for i, col := range numeric {
		if nums[i], err = f.Column(col); err != nil {
			return nil, err
		}
	}

	var rows []int
	for i := range y {
		if y[i].Missing {
			continue
		}
		ok := true
		for _, c := range cats {
			ok = ok && !c[i].Missing
		}
		for _, c := range nums {
			ok = ok && !c[i].Missing
		}
		if ok {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no complete rows: %w", ErrTooFew)
	}

	d := &Design{
		Response:   response,
		Terms:      []Term{{Variable: Intercept}},
		References: make(map[string]string),
	}
	type dummy struct {
		cat   int
		level string
	}
	var dummies []dummy
	for i, col := range categorical {
		seen := make(map[string]bool)
		var levels []string
		for _, r := range rows {
			if v := cats[i][r].Text; !seen[v] {
				seen[v] = true
				levels = append(levels, v)
			}
		}
		sort.Strings(levels)
		d.References[col] = levels[0]
		for _, level := range levels[1:] {
			d.Terms = append(d.Terms, Term{Variable: col, Level: level})
			dummies = append(dummies, dummy{cat: i, level: level})
		}
	}
	for _, col := range numeric {
		d.Terms = append(d.Terms, Term{Variable: col})
	}
	if len(d.Terms) == 1 {
		return nil, ErrNoPredictors
	}

	d.X = mat.NewDense(len(rows), len(d.Terms), nil)
	d.Y = make([]float64, len(rows))
	for i, r := range rows {
		d.Y[i] = y[r].Num
		d.X.Set(i, 0, 1)
		j := 1
		for _, dm := range dummies {
			if cats[dm.cat][r].Text == dm.level {
				d.X.Set(i, j, 1)
			}
			j++
		}
		for _, c := range nums {
			d.X.Set(i, j, c[r].Num)
			j++
		}
	}
	return d, nil
}

// Coefficient is one fitted term.
type Coefficient struct {
	Term
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	T        float64 `json:"t"`
	P        float64 `json:"p"`
}

// Regression is an ordinary least squares fit.
type Regression struct {
	Response   string            `json:"response"`
	Terms      []Coefficient     `json:"terms"`
	References map[string]string `json:"references"`
	N          int               `json:"n"`
	DFResid    int               `json:"df_resid"`
	R2         float64           `json:"r2"`
	AdjR2      float64           `json:"adj_r2"`
	F          float64           `json:"f"`
	FPValue    float64           `json:"f_p_value"`
	ResidualSE float64           `json:"residual_se"`
}

// FitOLS solves the least squares problem by QR and derives standard errors
// from (XᵀX)⁻¹.
func FitOLS(d *Design) (*Regression, error) {
	n, p := d.X.Dims()
	if n <= p {
		return nil, fmt.Errorf("%d rows for %d terms: %w", n, p, ErrTooFew)
	}

	var qr mat.QR
	qr.Factorize(d.X)
	y := mat.NewVecDense(n, d.Y)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var xtx, inv mat.Dense
	xtx.Mul(d.X.T(), d.X)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(d.X, beta.ColView(0))
	mean := 0.
	for _, v := range d.Y {
		mean += v
	}
	mean /= float64(n)
	ssr, sst := 0., 0.
	for i, v := range d.Y {
		r := v - fitted.AtVec(i)
		ssr += r * r
		sst += (v - mean) * (v - mean)
	}
	if sst == 0 {
		return nil, fmt.Errorf("%w: %s is constant", ErrSingular, d.Response)
	}

	df := n - p
	σ2 := ssr / float64(df)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}

	reg := &Regression{
		Response:   d.Response,
		Terms:      make([]Coefficient, p),
		References: d.References,
		N:          n,
		DFResid:    df,
		R2:         1 - ssr/sst,
		ResidualSE: math.Sqrt(σ2),
	}
	reg.AdjR2 = 1 - (1-reg.R2)*float64(n-1)/float64(df)
	for j := range p {
		c := Coefficient{
			Term:     d.Terms[j],
			Estimate: beta.At(j, 0),
			StdErr:   math.Sqrt(σ2 * inv.At(j, j)),
		}
		c.T = c.Estimate / c.StdErr
		c.P = 2 * t.Survival(math.Abs(c.T))
		reg.Terms[j] = c
	}

	dfModel := float64(p - 1)
	reg.F = ((sst - ssr) / dfModel) / σ2
	reg.FPValue = distuv.F{D1: dfModel, D2: float64(df)}.Survival(reg.F)
	return reg, nil
}

// Coefficients returns the terms of one predictor variable in design order.
func (r *Regression) Coefficients(variable string) []Coefficient {
	var out []Coefficient
	for _, c := range r.Terms {
		if c.Variable == variable {
			out = append(out, c)
		}
	}
	return out
}

// Variables lists the predictor variables, intercept excluded.
func (r *Regression) Variables() []string {
	var out []string
	for _, c := range r.Terms {
		if c.Variable != Intercept && !slices.Contains(out, c.Variable) {
			out = append(out, c.Variable)
		}
	}
	return out
}

// Summary renders the fit as a plain-text table.
func (r *Regression) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "OLS Regression Results\n")
	fmt.Fprintf(&b, "Dep. Variable:     %-14s R-squared:          %.3f\n", r.Response, r.R2)
	fmt.Fprintf(&b, "No. Observations:  %-14d Adj. R-squared:     %.3f\n", r.N, r.AdjR2)
	fmt.Fprintf(&b, "Df Residuals:      %-14d F-statistic:        %.4g\n", r.DFResid, r.F)
	fmt.Fprintf(&b, "Df Model:          %-14d Prob (F-statistic): %.3g\n", len(r.Terms)-1, r.FPValue)
	fmt.Fprintf(&b, "Residual Std Err:  %.4g\n\n", r.ResidualSE)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tcoef\tstd err\tt\tP>|t|\t")
	for _, c := range r.Terms {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.3f\t%.3f\t\n", c.Name(), c.Estimate, c.StdErr, c.T, c.P)
	}
	tw.Flush()

	if len(r.References) > 0 {
		vars := make([]string, 0, len(r.References))
		for v := range r.References {
			vars = append(vars, v)
		}
		sort.Strings(vars)
		b.WriteString("\nReference levels:")
		for _, v := range vars {
			fmt.Fprintf(&b, " %s=%s", v, r.References[v])
		}
		b.WriteString("\n")
	}
	return b.String()
}
