// Package coint implements the Engle-Granger two-step cointegration
// test and the bounded worker pool dispatching it across candidate
// pairs.
package coint

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"pairscan/internal/domain"
	"pairscan/internal/observability"
)

// ErrDegenerateSeries marks a pair whose series cannot support the
// test: too short, (near-)constant, or collinear to the point of a
// singular regression.
var ErrDegenerateSeries = errors.New("degenerate series pair")

// Near-zero variance cutoff for the degeneracy guard.
const varianceEps = 1e-12

// Engine runs Engle-Granger tests over candidate pairs. The test itself
// is a pure function of the two input series; the engine only adds
// guard rails, logging and concurrency.
type Engine struct {
	minPoints int
	workers   int
	log       zerolog.Logger
	metrics   *observability.Metrics
}

// Options configures an Engine.
type Options struct {
	// MinPoints is the minimum usable sample count per series.
	MinPoints int
	// Workers bounds the number of concurrent pair tests.
	Workers int
	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// NewEngine creates an Engine. Workers and MinPoints fall back to 1 and
// 3 respectively when unset.
func NewEngine(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MinPoints < 3 {
		opts.MinPoints = 3
	}
	return &Engine{
		minPoints: opts.MinPoints,
		workers:   opts.Workers,
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Test runs the Engle-Granger two-step test for one pair: an OLS
// cointegrating regression of A's closes on B's closes, then an
// augmented Dickey-Fuller test on the residuals. Deterministic for
// fixed inputs.
func (e *Engine) Test(pair domain.Pair, a, b *domain.PriceSeries) (domain.CointResult, error) {
	ya, xb := a.Closes(), b.Closes()

	if len(ya) != len(xb) {
		return domain.CointResult{}, fmt.Errorf("%w: unaligned lengths %d vs %d", ErrDegenerateSeries, len(ya), len(xb))
	}
	if len(ya) < e.minPoints {
		return domain.CointResult{}, fmt.Errorf("%w: %d samples, need %d", ErrDegenerateSeries, len(ya), e.minPoints)
	}
	if variance(ya) < varianceEps || variance(xb) < varianceEps {
		return domain.CointResult{}, fmt.Errorf("%w: constant series", ErrDegenerateSeries)
	}

	// Step 1: cointegrating regression, slope is the hedge ratio.
	_, beta, resid, err := linearFit(ya, xb)
	if err != nil {
		return domain.CointResult{}, fmt.Errorf("%w: cointegrating regression: %v", ErrDegenerateSeries, err)
	}
	if variance(resid) < varianceEps {
		return domain.CointResult{}, fmt.Errorf("%w: exactly collinear series", ErrDegenerateSeries)
	}

	// Step 2: unit root test on the residuals. No deterministic terms;
	// the residuals are demeaned by construction.
	adf, err := adfTest(resid, -1)
	if err != nil {
		return domain.CointResult{}, fmt.Errorf("%w: residual ADF: %v", ErrDegenerateSeries, err)
	}

	return domain.CointResult{
		Pair:       pair,
		Statistic:  adf.Stat,
		PValue:     mackinnonP(adf.Stat, 2),
		HedgeRatio: beta,
		CritValues: mackinnonCrit2(adf.Nobs),
	}, nil
}
