package trend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(n int, lo, hi float64, f func(float64) float64) (xs, ys []float64) {
	for i := range n {
		x := lo + (hi-lo)*float64(i)/float64(n-1)
		xs = append(xs, x)
		ys = append(ys, f(x))
	}
	return xs, ys
}

func TestFit_Linear(t *testing.T) {
	xs, ys := sample(30, -3000, 0, func(x float64) float64 { return 40 + 0.01*x })
	fit, err := Fit(Linear, xs, ys)
	require.NoError(t, err)

	assert.InDelta(t, 0, fit.RSS, 1e-4)
	for _, x := range []float64{-2500, -1000, 0} {
		assert.InDelta(t, 40+0.01*x, fit.Eval(x), 1e-2)
	}
	assert.Equal(t, "linear fit", fit.Label())
}

func TestFit_Exponential(t *testing.T) {
	truth := func(x float64) float64 { return 5*math.Exp(0.5*x) + 1 }
	xs, ys := sample(40, 0, 4, truth)
	fit, err := Fit(Exponential, xs, ys)
	require.NoError(t, err)

	for _, x := range []float64{0, 1.5, 4} {
		assert.InEpsilon(t, truth(x), fit.Eval(x), 1e-2)
	}
}

func TestFit_ExponentialDecreasing(t *testing.T) {
	truth := func(x float64) float64 { return 200*math.Exp(-0.3*x) + 20 }
	xs, ys := sample(40, 0, 10, truth)
	fit, err := Fit(Exponential, xs, ys)
	require.NoError(t, err)
	for _, x := range []float64{0, 5, 10} {
		assert.InEpsilon(t, truth(x), fit.Eval(x), 1e-2)
	}
}

func TestFit_Lorentzian(t *testing.T) {
	truth := func(x float64) float64 {
		return .25 * 3 * math.Pow(2, 2) / (math.Pow(x-4, 2) + .25*math.Pow(2, 2)) + 0.5
	}
	xs, ys := sample(60, 0, 10, truth)
	fit, err := Fit(Lorentzian, xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, truth(4), fit.Eval(4), 1e-2)
	assert.InDelta(t, truth(9), fit.Eval(9), 1e-2)
}

func TestFit_Errors(t *testing.T) {
	_, err := Fit(Linear, []float64{1, 2}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrTooFew)

	_, err = Fit(Linear, []float64{1, 1, 1, 1}, []float64{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrFlat)

	_, err = Fit("cubic", []float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	assert.Error(t, err)

	_, err = Fit(Linear, []float64{1, 2, 3}, []float64{1, 2})
	assert.Error(t, err)
}

func TestResult_Curve(t *testing.T) {
	xs, ys := sample(10, 0, 9, func(x float64) float64 { return 2 * x })
	fit, err := Fit(Linear, xs, ys)
	require.NoError(t, err)

	cx, cy := fit.Curve(4, 0, 9)
	assert.Equal(t, []float64{0, 3, 6, 9}, cx)
	for i := range cx {
		assert.InDelta(t, 2*cx[i], cy[i], 1e-3)
	}
}

func TestParseModel(t *testing.T) {
	for _, m := range Models() {
		got, err := ParseModel(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseModel("spline")
	assert.Error(t, err)
}
