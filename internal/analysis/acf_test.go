package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestACF(t *testing.T) {
	values := whiteNoise(100, 5)
	acf, err := ACF(values, 10, 0.05)
	require.NoError(t, err)

	require.Len(t, acf.Values, 11)
	require.Len(t, acf.Band, 11)
	assert.Equal(t, 1.0, acf.Values[0])
	assert.Equal(t, 0.0, acf.Band[0])
	assert.InDelta(t, 1.959964/10, acf.Band[1], 1e-6)
	assert.Equal(t, 100, acf.NObs)

	// Bartlett bands widen with the lag
	for k := 2; k < len(acf.Band); k++ {
		assert.GreaterOrEqual(t, acf.Band[k], acf.Band[k-1])
	}
	for _, v := range acf.Values {
		assert.LessOrEqual(t, math.Abs(v), 1.0)
	}
}

func TestACFAlternating(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = float64(1 - 2*(i%2))
	}
	acf, err := ACF(values, 3, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, -39.0/40, acf.Values[1], 1e-9)
	assert.InDelta(t, 38.0/40, acf.Values[2], 1e-9)
}

func TestACFCapsLags(t *testing.T) {
	acf, err := ACF(whiteNoise(10, 6), 30, 0.05)
	require.NoError(t, err)
	assert.Len(t, acf.Values, 10)
}

func TestPACF(t *testing.T) {
	values := randomWalk(120, 7)
	pacf, err := PACF(values, 10, 0.05)
	require.NoError(t, err)
	acf, err := ACF(values, 10, 0.05)
	require.NoError(t, err)

	require.Len(t, pacf.Values, 11)
	assert.Equal(t, 1.0, pacf.Values[0])
	assert.InDelta(t, acf.Values[1], pacf.Values[1], 1e-12)
	r1, r2 := acf.Values[1], acf.Values[2]
	assert.InDelta(t, (r2-r1*r1)/(1-r1*r1), pacf.Values[2], 1e-12)
	assert.Greater(t, pacf.Values[1], 0.8)

	for k := 1; k < len(pacf.Band); k++ {
		assert.InDelta(t, 1.959964/math.Sqrt(120), pacf.Band[k], 1e-6)
	}
}

func TestPACFCapsLags(t *testing.T) {
	pacf, err := PACF(whiteNoise(20, 8), 30, 0.05)
	require.NoError(t, err)
	assert.Len(t, pacf.Values, 11)

	pacf, err = PACF(whiteNoise(21, 8), 30, 0.05)
	require.NoError(t, err)
	assert.Len(t, pacf.Values, 11)

	_, err = PACF([]float64{1}, 5, 0.05)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestCorrelationMissingValues(t *testing.T) {
	values := whiteNoise(30, 9)
	values[3] = math.NaN()

	_, err := ACF(values, 5, 0.05)
	assert.ErrorIs(t, err, ErrMissingValues)
	_, err = PACF(values, 5, 0.05)
	assert.ErrorIs(t, err, ErrMissingValues)
}
