package coint

import (
	"errors"
	"math"
)

// Numerical failure modes of the regression step. Both fail a single
// pair test, never the run.
var (
	ErrSingular   = errors.New("singular regression design")
	ErrShortInput = errors.New("input series too short")
)

// olsFit holds the output of a least-squares fit.
type olsFit struct {
	coef   []float64 // estimated coefficients, one per design column
	stderr []float64 // standard error per coefficient
	resid  []float64 // residuals, one per observation
	ssr    float64   // sum of squared residuals
	nobs   int
}

// olsRegress fits y = X*b by ordinary least squares via the normal
// equations. X is row-major with one row per observation. Returns
// ErrSingular when X'X is not invertible.
func olsRegress(x [][]float64, y []float64) (*olsFit, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, ErrShortInput
	}
	k := len(x[0])
	if k == 0 || n <= k {
		return nil, ErrShortInput
	}

	// Build X'X and X'y.
	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)
	for t := 0; t < n; t++ {
		row := x[t]
		for i := 0; i < k; i++ {
			xty[i] += row[i] * y[t]
			for j := i; j < k; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 1; i < k; i++ {
		for j := 0; j < i; j++ {
			xtx[i][j] = xtx[j][i]
		}
	}

	inv, err := invertSymmetric(xtx)
	if err != nil {
		return nil, err
	}

	coef := make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			coef[i] += inv[i][j] * xty[j]
		}
	}

	fit := &olsFit{coef: coef, nobs: n}
	fit.resid = make([]float64, n)
	for t := 0; t < n; t++ {
		pred := 0.0
		for i := 0; i < k; i++ {
			pred += x[t][i] * coef[i]
		}
		r := y[t] - pred
		fit.resid[t] = r
		fit.ssr += r * r
	}

	// Classical OLS standard errors: s^2 * diag((X'X)^-1).
	s2 := fit.ssr / float64(n-k)
	fit.stderr = make([]float64, k)
	for i := 0; i < k; i++ {
		fit.stderr[i] = math.Sqrt(s2 * inv[i][i])
	}
	return fit, nil
}

// logLikelihood returns the Gaussian log-likelihood of the fit, matching
// the value used for information-criterion lag selection.
func (f *olsFit) logLikelihood() float64 {
	n := float64(f.nobs)
	return -n / 2 * (math.Log(2*math.Pi) + math.Log(f.ssr/n) + 1)
}

// bic returns the Bayesian information criterion with df estimated
// parameters.
func (f *olsFit) bic(df int) float64 {
	return -2*f.logLikelihood() + float64(df)*math.Log(float64(f.nobs))
}

// invertSymmetric inverts a symmetric positive matrix by Gauss-Jordan
// elimination with partial pivoting.
func invertSymmetric(m [][]float64) ([][]float64, error) {
	k := len(m)

	// Augment with identity.
	a := make([][]float64, k)
	for i := range a {
		a[i] = make([]float64, 2*k)
		copy(a[i], m[i])
		a[i][k+i] = 1
	}

	for col := 0; col < k; col++ {
		pivot := col
		for r := col + 1; r < k; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, ErrSingular
		}
		a[col], a[pivot] = a[pivot], a[col]

		p := a[col][col]
		for j := col; j < 2*k; j++ {
			a[col][j] /= p
		}
		for r := 0; r < k; r++ {
			if r == col {
				continue
			}
			factor := a[r][col]
			if factor == 0 {
				continue
			}
			for j := col; j < 2*k; j++ {
				a[r][j] -= factor * a[col][j]
			}
		}
	}

	inv := make([][]float64, k)
	for i := range inv {
		inv[i] = a[i][k:]
	}
	return inv, nil
}

// linearFit regresses y on x with an intercept and returns the
// intercept, slope and residuals of the fit.
func linearFit(y, x []float64) (alpha, beta float64, resid []float64, err error) {
	if len(y) != len(x) || len(y) < 3 {
		return 0, 0, nil, ErrShortInput
	}

	design := make([][]float64, len(x))
	for t := range x {
		design[t] = []float64{1, x[t]}
	}
	fit, err := olsRegress(design, y)
	if err != nil {
		return 0, 0, nil, err
	}
	return fit.coef[0], fit.coef[1], fit.resid, nil
}

// variance returns the population variance of s.
func variance(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range s {
		mean += v
	}
	mean /= float64(len(s))

	out := 0.0
	for _, v := range s {
		d := v - mean
		out += d * d
	}
	return out / float64(len(s))
}
