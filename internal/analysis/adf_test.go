package analysis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func whiteNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

func randomWalk(n int, seed int64) []float64 {
	steps := whiteNoise(n, seed)
	out := make([]float64, n)
	sum := 0.0
	for i, s := range steps {
		sum += s
		out[i] = sum
	}
	return out
}

func TestPolyval(t *testing.T) {
	assert.Equal(t, 1.0, polyval([]float64{1}, 5))
	// 1 + 2x + 3x^2 at x=2
	assert.Equal(t, 17.0, polyval([]float64{1, 2, 3}, 2))
}

func TestMackinnonP(t *testing.T) {
	assert.InDelta(t, 0.05, mackinnonP(-2.86154), 0.002)
	assert.InDelta(t, 0.01, mackinnonP(-3.43035), 0.002)
	assert.Equal(t, 1.0, mackinnonP(3))
	assert.Equal(t, 0.0, mackinnonP(-20))

	// monotone in the statistic
	assert.Less(t, mackinnonP(-4), mackinnonP(-2))
	assert.Less(t, mackinnonP(-1), mackinnonP(0))
}

func TestMackinnonCrit(t *testing.T) {
	crit := mackinnonCrit(1000)
	require.Len(t, crit, 3)
	assert.InDelta(t, -3.437, crit["1%"], 0.001)
	assert.InDelta(t, -2.864, crit["5%"], 0.001)
	assert.InDelta(t, -2.568, crit["10%"], 0.001)
	assert.Less(t, crit["1%"], crit["5%"])
	assert.Less(t, crit["5%"], crit["10%"])
}

func TestADFullerWhiteNoise(t *testing.T) {
	res, err := ADFuller(whiteNoise(200, 1))
	require.NoError(t, err)

	assert.Less(t, res.Statistic, res.CriticalValues["1%"])
	assert.Less(t, res.PValue, 0.05)
	assert.True(t, res.Stationary(0.05))

	maxlag := int(math.Ceil(12 * math.Pow(2, 0.25)))
	assert.LessOrEqual(t, res.UsedLag, maxlag)
	assert.Equal(t, 199-res.UsedLag, res.NObs)
}

func TestADFullerRandomWalk(t *testing.T) {
	walk, err := ADFuller(randomWalk(200, 2))
	require.NoError(t, err)
	noise, err := ADFuller(whiteNoise(200, 2))
	require.NoError(t, err)

	assert.Greater(t, walk.Statistic, noise.Statistic)
	assert.Greater(t, walk.PValue, noise.PValue)
}

func TestADFullerErrors(t *testing.T) {
	values := whiteNoise(50, 3)
	values[7] = math.NaN()
	_, err := ADFuller(values)
	assert.ErrorIs(t, err, ErrMissingValues)

	_, err = ADFuller([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestFitOLS(t *testing.T) {
	noise := whiteNoise(50, 4)
	y := make([]float64, 50)
	x := mat.NewDense(50, 2, nil)
	for i := range y {
		xi := float64(i)
		x.Set(i, 0, 1)
		x.Set(i, 1, xi)
		y[i] = 2 + 3*xi + 0.01*noise[i]
	}

	res, err := fitOLS(y, x)
	require.NoError(t, err)
	assert.InDelta(t, 2, res.params[0], 0.05)
	assert.InDelta(t, 3, res.params[1], 0.001)
	assert.Equal(t, 50, res.nobs)
	assert.Greater(t, res.tvalues[1], 100.0)

	_, err = fitOLS(y[:2], mat.NewDense(2, 2, []float64{1, 0, 0, 1}))
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestADFullerFixedLag(t *testing.T) {
	values := []float64{3, 5, 4, 6, 8, 7, 6, 9, 8, 10, 9, 11}

	res, err := adfuller(values, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.UsedLag)
	assert.Equal(t, 11, res.NObs)

	// simple regression of diff[t] on values[t] with intercept, solved by hand:
	// slope -57/182, t = slope / sqrt(s^2 / Sxx)
	assert.InDelta(t, -1.370957144932037, res.Statistic, 1e-9)
	assert.InDelta(t, mackinnonP(-1.370957144932037), res.PValue, 1e-12)
}

func TestADFullerLagSearchUsesCommonSample(t *testing.T) {
	values := randomWalk(60, 11)
	for i := range values {
		values[i] += 0.5 * math.Sin(float64(i))
	}
	const maxlag = 4

	res, err := adfuller(values, maxlag)
	require.NoError(t, err)

	diff := make([]float64, len(values)-1)
	for i := range diff {
		diff[i] = values[i+1] - values[i]
	}

	// every candidate is scored on the rows left after trimming maxlag
	aics := make([]float64, maxlag+1)
	for lags := 0; lags <= maxlag; lags++ {
		y, x := adfDesign(values, diff, maxlag, lags, true)
		assert.Len(t, y, len(diff)-maxlag)
		fit, err := fitOLS(y, x)
		require.NoError(t, err)
		aics[lags] = fit.aic
	}
	assert.Equal(t, aics[res.UsedLag], res.ICBest)
	for lags, aic := range aics {
		assert.LessOrEqual(t, res.ICBest, aic, "lag %d", lags)
	}

	// the chosen lag is refit on every row it can use
	y, x := adfDesign(values, diff, res.UsedLag, res.UsedLag, false)
	refit, err := fitOLS(y, x)
	require.NoError(t, err)
	assert.Equal(t, len(diff)-res.UsedLag, res.NObs)
	assert.Equal(t, refit.tvalues[0], res.Statistic)
}
