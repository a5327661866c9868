package coint

import (
	"fmt"
	"math"
)

// adfResult is the outcome of an augmented Dickey-Fuller regression.
type adfResult struct {
	Stat    float64 // tau statistic on the level coefficient
	UsedLag int     // number of lagged differences selected by BIC
	Nobs    int     // observations entering the final regression
}

// adfTest runs the augmented Dickey-Fuller test on series without
// deterministic terms (the series is expected to be demeaned already,
// as cointegrating-regression residuals are). The lag order is chosen
// by BIC over 0..maxlag with a common estimation sample, then the
// statistic is re-estimated on the longest sample the chosen lag allows.
func adfTest(series []float64, maxlag int) (*adfResult, error) {
	nobs := len(series)
	if maxlag < 0 {
		// Schwert's rule, as used by the reference implementation.
		maxlag = int(math.Ceil(12 * math.Pow(float64(nobs)/100, 0.25)))
	}
	// The regression needs nobs - maxlag - 1 rows and maxlag + 1 columns.
	if limit := nobs/2 - 2; maxlag > limit {
		maxlag = limit
	}
	if maxlag < 0 || nobs-maxlag-1 < maxlag+2 {
		return nil, fmt.Errorf("%w: %d samples", ErrShortInput, nobs)
	}

	usedLag, err := selectLagBIC(series, maxlag)
	if err != nil {
		return nil, err
	}

	fit, err := adfRegress(series, usedLag, usedLag)
	if err != nil {
		return nil, err
	}
	if fit.stderr[0] == 0 {
		return nil, ErrSingular
	}

	return &adfResult{
		Stat:    fit.coef[0] / fit.stderr[0],
		UsedLag: usedLag,
		Nobs:    fit.nobs,
	}, nil
}

// selectLagBIC fits the ADF regression for every lag in 0..maxlag over
// the common sample implied by maxlag and returns the lag minimizing
// the BIC. Ties break toward the smaller lag.
func selectLagBIC(series []float64, maxlag int) (int, error) {
	best, bestBIC := 0, math.Inf(1)
	for lag := 0; lag <= maxlag; lag++ {
		fit, err := adfRegress(series, lag, maxlag)
		if err != nil {
			return 0, err
		}
		// One level coefficient plus lag difference terms.
		if b := fit.bic(lag + 1); b < bestBIC {
			best, bestBIC = lag, b
		}
	}
	return best, nil
}

// adfRegress builds and fits the ADF regression
//
//	Δy_t = γ·y_{t-1} + Σ_{i=1..lag} φ_i·Δy_{t-i} + ε_t
//
// dropping the first trim+1 observations, so calls with a shared trim
// estimate over an identical sample regardless of lag.
func adfRegress(series []float64, lag, trim int) (*olsFit, error) {
	nobs := len(series)
	start := trim + 1
	if start >= nobs {
		return nil, ErrShortInput
	}

	diff := make([]float64, nobs-1)
	for t := 1; t < nobs; t++ {
		diff[t-1] = series[t] - series[t-1]
	}

	rows := nobs - start
	design := make([][]float64, rows)
	target := make([]float64, rows)
	for t := start; t < nobs; t++ {
		row := make([]float64, 1+lag)
		row[0] = series[t-1]
		for i := 1; i <= lag; i++ {
			row[i] = diff[t-1-i]
		}
		design[t-start] = row
		target[t-start] = diff[t-1]
	}

	return olsRegress(design, target)
}
