// Package series fetches close-price history for the filtered universe
// and aligns it into index-comparable fixed-length series.
package series

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pairscan/internal/config"
	"pairscan/internal/domain"
	"pairscan/internal/observability"
)

// Fetcher provides historical close-price series per instrument.
type Fetcher interface {
	// Series returns up to limit bars of close prices for symbol at the
	// given bar interval, oldest first.
	Series(ctx context.Context, symbol, interval string, limit int) (*domain.PriceSeries, error)
}

// Aligner runs the fetch phase: one bounded-concurrency fetch per
// symbol, each independently timeout-able, followed by a cadence check
// so every retained series is index-aligned with every other.
type Aligner struct {
	fetcher     Fetcher
	interval    string
	lookback    int
	concurrency int
	timeout     time.Duration
	log         zerolog.Logger
	metrics     *observability.Metrics
}

// NewAligner creates an Aligner from a validated configuration.
func NewAligner(fetcher Fetcher, cfg *config.Screen, log zerolog.Logger, metrics *observability.Metrics) *Aligner {
	return &Aligner{
		fetcher:     fetcher,
		interval:    cfg.Interval,
		lookback:    cfg.LookbackCount,
		concurrency: cfg.FetchConcurrency,
		timeout:     cfg.FetchTimeout,
		log:         log,
		metrics:     metrics,
	}
}

// Align fetches one series per symbol and returns those that are
// complete and share the common timestamp sequence. A failed or short
// fetch drops only that symbol. Returns ctx.Err() on cancellation so a
// partially fetched universe is never handed downstream.
func (a *Aligner) Align(ctx context.Context, symbols []string) (map[string]*domain.PriceSeries, error) {
	var (
		mu      sync.Mutex
		fetched = make(map[string]*domain.PriceSeries, len(symbols))
	)

	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			s, err := a.fetchOne(ctx, symbol)
			if err != nil {
				a.log.Warn().Err(err).Str("symbol", symbol).Msg("series dropped")
				if a.metrics != nil {
					a.metrics.FetchFailures.WithLabelValues("fetch").Inc()
				}
				return
			}

			// Write-once per key: every goroutine owns its own symbol.
			mu.Lock()
			fetched[symbol] = s
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return a.alignCadence(fetched), nil
}

// fetchOne fetches and validates a single symbol's series under the
// per-instrument timeout. The returned series is complete or nil.
func (a *Aligner) fetchOne(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	s, err := a.fetcher.Series(fetchCtx, symbol, a.interval, a.lookback)
	if a.metrics != nil {
		a.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if s.Len() != a.lookback {
		return nil, fmt.Errorf("fetch %s: insufficient history, got %d of %d bars", symbol, s.Len(), a.lookback)
	}
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].TimestampMs <= s.Points[i-1].TimestampMs {
			return nil, fmt.Errorf("fetch %s: non-monotonic timestamps at index %d", symbol, i)
		}
	}
	return s, nil
}

// alignCadence keeps the largest group of series sharing an identical
// timestamp sequence, so downstream pairwise comparisons are
// index-aligned. Ties break toward the group holding the
// lexicographically smallest symbol, keeping retention deterministic.
func (a *Aligner) alignCadence(fetched map[string]*domain.PriceSeries) map[string]*domain.PriceSeries {
	groups := make(map[string][]string) // timestamp signature -> symbols
	for symbol, s := range fetched {
		groups[signature(s)] = append(groups[signature(s)], symbol)
	}

	var bestSig string
	for sig, members := range groups {
		sort.Strings(members)
		if bestSig == "" {
			bestSig = sig
			continue
		}
		best := groups[bestSig]
		if len(members) > len(best) || (len(members) == len(best) && members[0] < best[0]) {
			bestSig = sig
		}
	}

	out := make(map[string]*domain.PriceSeries, len(fetched))
	for _, symbol := range groups[bestSig] {
		out[symbol] = fetched[symbol]
	}
	for symbol := range fetched {
		if _, ok := out[symbol]; !ok {
			a.log.Warn().Str("symbol", symbol).Msg("series dropped: cadence mismatch with universe")
			if a.metrics != nil {
				a.metrics.FetchFailures.WithLabelValues("cadence").Inc()
			}
		}
	}
	return out
}

// signature folds a series' timestamp sequence into a comparable key.
func signature(s *domain.PriceSeries) string {
	if s.Len() == 0 {
		return ""
	}
	step := int64(0)
	if s.Len() > 1 {
		step = s.Points[1].TimestampMs - s.Points[0].TimestampMs
	}
	// First timestamp plus step covers fixed-cadence series; fall back
	// to a full scan only to confirm the cadence is actually fixed.
	for i := 2; i < len(s.Points); i++ {
		if s.Points[i].TimestampMs-s.Points[i-1].TimestampMs != step {
			return fmt.Sprintf("irregular:%v", s.Timestamps())
		}
	}
	return fmt.Sprintf("%d:%d:%d", s.Points[0].TimestampMs, step, s.Len())
}
