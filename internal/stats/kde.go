// Package stats computes the dashboard's aggregates: kernel density
// estimates, KPI cards and the OLS regression.
package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFew is returned when a statistic needs more observations.
var ErrTooFew = errors.New("not enough observations")

// Bandwidth is Scott's rule for a Gaussian kernel: σ·n^(-1/5), with σ the
// sample standard deviation.
func Bandwidth(
	xs []float64,
) (
	float64,
	error,
) {

	if len(xs) < 2 {
		return 0, ErrTooFew
	}
	σ := stat.StdDev(xs, nil)
	if σ == 0 || math.IsNaN(σ) {
		return 0, ErrTooFew
	}
	return σ * math.Pow(float64(len(xs)), -0.2), nil
}

// KDE is a Gaussian kernel density estimate.
type KDE struct {
	xs []float64
	h  float64
}

// NewKDE fits a density to xs. At least two distinct values are required.
func NewKDE(xs []float64) (*KDE, error) {
	h, err := Bandwidth(xs)
	if err != nil {
		return nil, err
	}
	return &KDE{xs: append([]float64(nil), xs...), h: h}, nil
}

// Bandwidth is the kernel width in use.
func (k *KDE) Bandwidth() float64 { return k.h }

// Density evaluates the estimate at x.
func (k *KDE) Density(x float64) float64 {
	norm := 1 / (float64(len(k.xs)) * k.h * math.Sqrt(2*math.Pi))
	sum := 0.
	for _, xi := range k.xs {
		u := (x - xi) / k.h
		sum += math.Exp(-.5 * u * u)
	}
	return sum * norm
}

// Curve samples the density at n evenly spaced points over the data range,
// multiplied by scale. A scale of n·binwidth turns the density into expected
// counts per bin.
func (k *KDE) Curve(n int, scale float64) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	lo, hi := floats.Min(k.xs), floats.Max(k.xs)
	xs = make([]float64, n)
	floats.Span(xs, lo, hi)
	ys = make([]float64, n)
	for i, x := range xs {
		ys[i] = scale * k.Density(x)
	}
	return xs, ys
}
