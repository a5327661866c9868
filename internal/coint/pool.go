package coint

import (
	"context"
	"sync"
	"time"

	"pairscan/internal/domain"
)

// Run dispatches one test per candidate pair to a pool of e.workers
// goroutines and collects the results as workers finish. Result order
// is unspecified; ranking imposes order later. Workers share no mutable
// state, so the only synchronization is job/result channel hand-off.
//
// A degenerate pair fails only itself: it is logged, counted and
// excluded from the returned results. Cancelling ctx abandons
// unscheduled and in-flight pairs and returns ctx.Err().
func (e *Engine) Run(ctx context.Context, series map[string]*domain.PriceSeries, candidates []domain.Pair) ([]domain.CointResult, error) {
	jobs := make(chan domain.Pair)
	results := make(chan domain.CointResult)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range jobs {
				res, ok := e.testPair(pair, series)
				if !ok {
					continue
				}
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, pair := range candidates {
			select {
			case jobs <- pair:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []domain.CointResult
	for res := range results {
		out = append(out, res)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// testPair runs one test with instrumentation. Missing series and
// degenerate pairs are reported via logs/metrics, not errors.
func (e *Engine) testPair(pair domain.Pair, series map[string]*domain.PriceSeries) (domain.CointResult, bool) {
	a, okA := series[pair.A]
	b, okB := series[pair.B]
	if !okA || !okB {
		e.log.Warn().Stringer("pair", pair).Msg("series missing for pair, skipping")
		if e.metrics != nil {
			e.metrics.PairsFailed.Inc()
		}
		return domain.CointResult{}, false
	}

	start := time.Now()
	res, err := e.Test(pair, a, b)
	if e.metrics != nil {
		e.metrics.TestDuration.Observe(time.Since(start).Seconds())
		e.metrics.PairsTested.Inc()
	}
	if err != nil {
		e.log.Warn().Err(err).Stringer("pair", pair).Msg("pair test failed")
		if e.metrics != nil {
			e.metrics.PairsFailed.Inc()
		}
		return domain.CointResult{}, false
	}
	return res, true
}
