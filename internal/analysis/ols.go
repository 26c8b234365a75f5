package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// olsResult holds the pieces of a least squares fit the tests need
type olsResult struct {
	params  []float64
	tvalues []float64
	ssr     float64
	nobs    int
	aic     float64
}

// fitOLS regresses y on the columns of x
func fitOLS(y []float64, x *mat.Dense) (*olsResult, error) {
	n, k := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("ols: %d rows but %d observations", n, len(y))
	}
	if n <= k {
		return nil, fmt.Errorf("%w: ols needs more than %d observations, got %d", ErrTooShort, k, n)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("ols: singular design matrix: %w", err)
		}
		// ill-conditioned but solvable
	}

	yv := mat.NewVecDense(n, y)
	var xty, beta, fitted mat.VecDense
	xty.MulVec(x.T(), yv)
	beta.MulVec(&inv, &xty)
	fitted.MulVec(x, &beta)

	ssr := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}

	sigma2 := ssr / float64(n-k)
	res := &olsResult{
		params:  make([]float64, k),
		tvalues: make([]float64, k),
		ssr:     ssr,
		nobs:    n,
	}
	for j := 0; j < k; j++ {
		res.params[j] = beta.AtVec(j)
		res.tvalues[j] = res.params[j] / math.Sqrt(sigma2*inv.At(j, j))
	}

	llf := -float64(n) / 2 * (math.Log(2*math.Pi) + math.Log(ssr/float64(n)) + 1)
	res.aic = -2*llf + 2*float64(k)
	return res, nil
}
