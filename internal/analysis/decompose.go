// Package analysis implements the time-series statistics of the report:
// classical seasonal decomposition, the augmented Dickey-Fuller test and
// (partial) autocorrelation with confidence bands.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrMissingValues is returned when a series that must be complete has NaN
	ErrMissingValues = errors.New("series contains missing values")
	// ErrTooShort is returned when a series is too short for the requested analysis
	ErrTooShort = errors.New("series too short")
)

// Decomposition is an additive split of a series
type Decomposition struct {
	Period   int       `json:"period"`
	Observed []float64 `json:"observed"`
	Trend    []float64 `json:"trend"` // NaN where the moving average window is incomplete
	Seasonal []float64 `json:"seasonal"`
	Resid    []float64 `json:"resid"`
}

// Decompose splits values into trend, seasonal and residual components using
// a centred moving average trend
func Decompose(values []float64, period int) (*Decomposition, error) {
	if period < 2 {
		return nil, fmt.Errorf("period must be at least 2, got %d", period)
	}
	if hasNaN(values) {
		return nil, ErrMissingValues
	}
	if len(values) < 2*period {
		return nil, fmt.Errorf("%w: need two complete cycles (%d observations), got %d", ErrTooShort, 2*period, len(values))
	}

	n := len(values)
	trend := movingAverage(values, period)

	detrended := make([]float64, n)
	for i := range values {
		detrended[i] = values[i] - trend[i]
	}

	averages := make([]float64, period)
	for phase := 0; phase < period; phase++ {
		sum, cnt := 0.0, 0
		for i := phase; i < n; i += period {
			if math.IsNaN(detrended[i]) {
				continue
			}
			sum += detrended[i]
			cnt++
		}
		averages[phase] = sum / float64(cnt)
	}
	floats.AddConst(-floats.Sum(averages)/float64(period), averages)

	seasonal := make([]float64, n)
	resid := make([]float64, n)
	for i := range values {
		seasonal[i] = averages[i%period]
		resid[i] = detrended[i] - seasonal[i]
	}

	return &Decomposition{
		Period:   period,
		Observed: append([]float64(nil), values...),
		Trend:    trend,
		Seasonal: seasonal,
		Resid:    resid,
	}, nil
}

// movingAverage is a centred moving average. Even periods use a 2xMA with
// half weights on the two end points.
func movingAverage(values []float64, period int) []float64 {
	var weights []float64
	if period%2 == 0 {
		weights = make([]float64, period+1)
		for i := range weights {
			weights[i] = 1 / float64(period)
		}
		weights[0] /= 2
		weights[period] /= 2
	} else {
		weights = make([]float64, period)
		for i := range weights {
			weights[i] = 1 / float64(period)
		}
	}

	half := len(weights) / 2
	out := make([]float64, len(values))
	for i := range out {
		if i < half || i+half >= len(values) {
			out[i] = math.NaN()
			continue
		}
		out[i] = floats.Dot(weights, values[i-half:i+half+1])
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
