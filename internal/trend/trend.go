// Package trend fits smooth curves through scatter data with
// Levenberg-Marquardt, for the comparison chart's trend overlay.
package trend

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/maorshutman/lm"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// Model names a curve family.
type Model string

const (
	Linear      Model = "linear"
	Exponential Model = "exp"
	Lorentzian  Model = "lorentzian"
)

// Models lists the supported curve families.
func Models() []Model { return []Model{Linear, Exponential, Lorentzian} }

// ParseModel accepts a model name as used in query strings and flags.
func ParseModel(s string) (Model, error) {
	for _, m := range Models() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown trend model %q", s)
}

var (
	ErrTooFew        = errors.New("not enough points to fit")
	ErrFlat          = errors.New("x values do not vary")
	ErrNoConvergence = errors.New("fit did not converge")
)

func (m Model) dim() int {
	switch m {
	case Linear:
		return 2
	case Exponential:
		return 3
	default:
		return 4
	}
}

// eval is the model at u, where u is x rescaled onto [0, 1].
func (m Model) eval(u float64, p []float64) float64 {
	switch m {
	case Linear:
		return p[0] + p[1]*u
	case Exponential:
		return p[0]*math.Exp(p[1]*u) + p[2]
	default:
		// amplitude, centre, full width at half maximum, offset
		A, u0, γ, C := p[0], p[1], p[2], p[3]
		return .25*A*math.Pow(γ, 2)/(math.Pow(u-u0, 2)+.25*math.Pow(γ, 2)) + C
	}
}

// Result is a fitted curve. Params are in terms of u = (x - X0) / Scale.
type Result struct {
	Model     Model
	Params    []float64
	RSS       float64
	Converged bool
	X0, Scale float64
}

// Eval returns the fitted value at x.
func (r *Result) Eval(x float64) float64 {
	return r.Model.eval((x-r.X0)/r.Scale, r.Params)
}

// Curve samples the fit at n evenly spaced points on [lo, hi].
func (r *Result) Curve(n int, lo, hi float64) (xs, ys []float64) {
	xs = make([]float64, max(n, 2))
	floats.Span(xs, lo, hi)
	ys = make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = r.Eval(x)
	}
	return xs, ys
}

// Label is a short legend entry.
func (r *Result) Label() string {
	switch r.Model {
	case Linear:
		return "linear fit"
	case Exponential:
		return "exponential fit"
	default:
		return "lorentzian fit"
	}
}

// Fit fits model to the points by least squares.
func Fit(
	model Model,
	xs, ys []float64,
) (
	*Result,
	error,
) {

	if _, err := ParseModel(string(model)); err != nil {
		return nil, err
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%d x values for %d y values", len(xs), len(ys))
	}
	dim := model.dim()
	if len(xs) <= dim {
		return nil, fmt.Errorf("%d points for %d parameters: %w", len(xs), dim, ErrTooFew)
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	if hi == lo {
		return nil, ErrFlat
	}

	us := make([]float64, len(xs))
	for i, x := range xs {
		us[i] = (x - lo) / (hi - lo)
	}

	resFunc := func(dst, params []float64) {
		r := residuals(model, params, us, ys)
		copy(dst, r)
	}
	nj := &lm.NumJac{Func: resFunc}

	problem := lm.LMProblem{
		Dim:        dim,
		Size:       len(us),
		Func:       resFunc,
		Jac:        nj.Jac,
		InitParams: initialParams(model, us, ys),
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}
	settings := &lm.Settings{Iterations: 1000, ObjectiveTol: 1e-16}

	result, err := solve(problem, settings)
	if err != nil {
		return nil, err
	}
	for _, p := range result.X {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, ErrNoConvergence
		}
	}

	r := residuals(model, result.X, us, ys)
	fit := &Result{
		Model:     model,
		Params:    result.X,
		RSS:       floats.Dot(r, r),
		Converged: result.Status != optimize.IterationLimit,
		X0:        lo,
		Scale:     hi - lo,
	}
	log.Debug().
		Str("model", string(model)).
		Floats64("params", fit.Params).
		Float64("rss", fit.RSS).
		Bool("converged", fit.Converged).
		Msg("Trend fitted")
	return fit, nil
}

// solve runs lm.LM, which panics when its damped normal equations are singular.
func solve(problem lm.LMProblem, settings *lm.Settings) (res *lm.Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrNoConvergence, v)
		}
	}()
	return lm.LM(problem, settings)
}

func residuals(
	model Model,
	params, us, ys []float64,
) (
	[]float64,
) {

	r := make([]float64, len(us))
	for i, u := range us {
		r[i] = ys[i] - model.eval(u, params)
	}
	return r
}

// initialParams guesses a starting point from the data's range and direction.
func initialParams(model Model, us, ys []float64) []float64 {
	yMin, yMax := floats.Min(ys), floats.Max(ys)
	span := yMax - yMin
	if span == 0 {
		span = 1
	}

	switch model {
	case Linear:
		return []float64{yMin, 0}
	case Exponential:
		// a·e^u + c running from the first to the last end of the range
		a := span / (math.E - 1)
		start := yMin
		if slope(us, ys) < 0 {
			a, start = -a, yMax
		}
		return []float64{a, 1, start - a}
	default:
		peak := us[slices.Index(ys, yMax)]
		return []float64{span, peak, .2, yMin}
	}
}

// slope is the sign-bearing least squares slope of y on u.
func slope(us, ys []float64) float64 {
	mu, my := floats.Sum(us)/float64(len(us)), floats.Sum(ys)/float64(len(ys))
	num, den := 0., 0.
	for i := range us {
		num += (us[i] - mu) * (ys[i] - my)
		den += (us[i] - mu) * (us[i] - mu)
	}
	return num / den
}
