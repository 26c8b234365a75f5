package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Correlogram holds correlation coefficients for lags 0..len-1 and the half
// width of the confidence band around zero at each lag
type Correlogram struct {
	Values []float64 `json:"values"`
	Band   []float64 `json:"band"`
	Alpha  float64   `json:"alpha"`
	NObs   int       `json:"nobs"`
}

// ACF computes the autocorrelation function up to nlags with Bartlett's
// formula for the confidence band
func ACF(values []float64, nlags int, alpha float64) (*Correlogram, error) {
	if hasNaN(values) {
		return nil, ErrMissingValues
	}
	n := len(values)
	if n < 2 {
		return nil, fmt.Errorf("%w: %d observations", ErrTooShort, n)
	}
	if nlags > n-1 {
		nlags = n - 1
	}

	acf := autocorrelation(values, nlags)

	z := distuv.UnitNormal.Quantile(1 - alpha/2)
	band := make([]float64, nlags+1)
	cum := 0.0
	for k := 1; k <= nlags; k++ {
		if k > 1 {
			cum += acf[k-1] * acf[k-1]
		}
		band[k] = z * math.Sqrt((1+2*cum)/float64(n))
	}

	return &Correlogram{Values: acf, Band: band, Alpha: alpha, NObs: n}, nil
}

// PACF computes the partial autocorrelation function from Yule-Walker
// estimates on the biased autocovariance (Durbin-Levinson recursion). nlags
// is capped at half the sample size.
func PACF(values []float64, nlags int, alpha float64) (*Correlogram, error) {
	if hasNaN(values) {
		return nil, ErrMissingValues
	}
	n := len(values)
	if limit := n / 2; nlags > limit {
		nlags = limit
	}
	if nlags < 1 {
		return nil, fmt.Errorf("%w: %d observations", ErrTooShort, n)
	}

	r := autocorrelation(values, nlags)
	pacf := make([]float64, nlags+1)
	pacf[0] = 1

	phi := make([]float64, nlags+1)
	prev := make([]float64, nlags+1)
	for k := 1; k <= nlags; k++ {
		num, den := r[k], 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * r[k-j]
			den -= prev[j] * r[j]
		}
		phi[k] = num / den
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - phi[k]*prev[k-j]
		}
		pacf[k] = phi[k]
		copy(prev, phi)
	}

	z := distuv.UnitNormal.Quantile(1 - alpha/2)
	band := make([]float64, nlags+1)
	for k := 1; k <= nlags; k++ {
		band[k] = z / math.Sqrt(float64(n))
	}

	return &Correlogram{Values: pacf, Band: band, Alpha: alpha, NObs: n}, nil
}

// autocorrelation returns the biased sample autocorrelation for lags 0..nlags
func autocorrelation(values []float64, nlags int) []float64 {
	n := len(values)
	mean := stat.Mean(values, nil)

	acov := make([]float64, nlags+1)
	for k := 0; k <= nlags; k++ {
		sum := 0.0
		for t := 0; t+k < n; t++ {
			sum += (values[t] - mean) * (values[t+k] - mean)
		}
		acov[k] = sum / float64(n)
	}

	out := make([]float64, nlags+1)
	for k := range acov {
		if acov[0] == 0 {
			out[k] = math.NaN()
			continue
		}
		out[k] = acov[k] / acov[0]
	}
	return out
}
