package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ADFResult is the outcome of an augmented Dickey-Fuller test with a
// constant term
type ADFResult struct {
	Statistic      float64            `json:"statistic"`
	PValue         float64            `json:"p_value"`
	UsedLag        int                `json:"used_lag"`
	NObs           int                `json:"nobs"`
	CriticalValues map[string]float64 `json:"critical_values"`
	ICBest         float64            `json:"ic_best"`
}

// Stationary reports whether the unit root is rejected at the given level
func (r *ADFResult) Stationary(alpha float64) bool {
	return r.PValue < alpha
}

// ADFuller runs the augmented Dickey-Fuller unit root test. The number of
// lagged differences is chosen by minimum AIC, searching up to
// ceil(12*(n/100)^(1/4)) lags over a common sample.
func ADFuller(values []float64) (*ADFResult, error) {
	if hasNaN(values) {
		return nil, ErrMissingValues
	}

	n := len(values)
	maxlag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	// one trend term
	if limit := n/2 - 2; maxlag > limit {
		maxlag = limit
	}
	if maxlag < 0 {
		return nil, fmt.Errorf("%w: %d observations", ErrTooShort, n)
	}
	return adfuller(values, maxlag)
}

// adfuller runs the test searching lags 0..maxlag
func adfuller(values []float64, maxlag int) (*ADFResult, error) {
	n := len(values)
	diff := make([]float64, n-1)
	for i := range diff {
		diff[i] = values[i+1] - values[i]
	}

	// Lag selection: const, level and 0..maxlag differences on the sample
	// that every candidate shares.
	bestLag, bestAIC := 0, math.Inf(1)
	for lags := 0; lags <= maxlag; lags++ {
		y, x := adfDesign(values, diff, maxlag, lags, true)
		res, err := fitOLS(y, x)
		if err != nil {
			return nil, fmt.Errorf("adf lag %d: %w", lags, err)
		}
		if res.aic < bestAIC {
			bestLag, bestAIC = lags, res.aic
		}
	}

	y, x := adfDesign(values, diff, bestLag, bestLag, false)
	res, err := fitOLS(y, x)
	if err != nil {
		return nil, fmt.Errorf("adf regression: %w", err)
	}

	stat := res.tvalues[0]
	return &ADFResult{
		Statistic:      stat,
		PValue:         mackinnonP(stat),
		UsedLag:        bestLag,
		NObs:           res.nobs,
		CriticalValues: mackinnonCrit(res.nobs),
		ICBest:         bestAIC,
	}, nil
}

// adfDesign builds the regression of diff[t] on the level values[t] and
// lags lagged differences, using rows t = trim..len(diff)-1. constFirst
// places the intercept before the level column.
func adfDesign(values, diff []float64, trim, lags int, constFirst bool) ([]float64, *mat.Dense) {
	rows := len(diff) - trim
	cols := lags + 2
	y := make([]float64, rows)
	x := mat.NewDense(rows, cols, nil)

	for r := 0; r < rows; r++ {
		t := trim + r
		y[r] = diff[t]

		c := 0
		if constFirst {
			x.Set(r, c, 1)
			c++
		}
		x.Set(r, c, values[t])
		c++
		for j := 1; j <= lags; j++ {
			x.Set(r, c, diff[t-j])
			c++
		}
		if !constFirst {
			x.Set(r, c, 1)
		}
	}
	return y, x
}

// MacKinnon (1994) response surface for the constant-only, single series case
const (
	tauMaxC  = 2.74
	tauMinC  = -18.83
	tauStarC = -1.61
)

var (
	tauSmallPC = []float64{2.1659, 1.4412, 0.038269}
	tauLargePC = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// mackinnonP returns the approximate p-value of an ADF statistic
func mackinnonP(stat float64) float64 {
	switch {
	case stat > tauMaxC:
		return 1
	case stat < tauMinC:
		return 0
	}

	coef := tauLargePC
	if stat <= tauStarC {
		coef = tauSmallPC
	}
	return distuv.UnitNormal.CDF(polyval(coef, stat))
}

// MacKinnon (2010) critical value surfaces, constant-only
var tau2010C = map[string][]float64{
	"1%":  {-3.43035, -6.5393, -16.786, -79.433},
	"5%":  {-2.86154, -2.8903, -4.234, -40.040},
	"10%": {-2.56677, -1.5384, -2.809, 0},
}

func mackinnonCrit(nobs int) map[string]float64 {
	out := make(map[string]float64, len(tau2010C))
	inv := 1 / float64(nobs)
	for level, coef := range tau2010C {
		out[level] = polyval(coef, inv)
	}
	return out
}

// polyval evaluates coef[0] + coef[1]*x + coef[2]*x^2 + ...
func polyval(coef []float64, x float64) float64 {
	v := 0.0
	for i := len(coef) - 1; i >= 0; i-- {
		v = v*x + coef[i]
	}
	return v
}
