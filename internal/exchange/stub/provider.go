// Package stub provides a deterministic in-memory market-data provider
// for tests and offline runs.
package stub

import (
	"context"
	"fmt"
	"math/rand"

	"pairscan/internal/domain"
)

// Provider serves a fixed instrument universe and synthetic price
// series. Series are generated once per symbol from a seeded source, so
// repeated fetches return identical data. Per-symbol failures can be
// injected to exercise drop paths.
type Provider struct {
	instruments []domain.Instrument
	series      map[string]*domain.PriceSeries
	failSeries  map[string]error
}

// NewProvider creates a stub over a fixed universe. Series for every
// instrument are random walks seeded by the symbol and base seed.
func NewProvider(instruments []domain.Instrument, barCount int, intervalMs int64, seed int64) *Provider {
	p := &Provider{
		instruments: instruments,
		series:      make(map[string]*domain.PriceSeries, len(instruments)),
		failSeries:  make(map[string]error),
	}
	for _, ins := range instruments {
		p.series[ins.Symbol] = syntheticWalk(ins.Symbol, barCount, intervalMs, seed)
	}
	return p
}

// SetSeries replaces the canned series for one symbol.
func (p *Provider) SetSeries(symbol string, s *domain.PriceSeries) {
	p.series[symbol] = s
}

// FailSeries makes series fetches for symbol return err.
func (p *Provider) FailSeries(symbol string, err error) {
	p.failSeries[symbol] = err
}

// Instruments returns a copy of the configured universe.
func (p *Provider) Instruments(_ context.Context) ([]domain.Instrument, error) {
	out := make([]domain.Instrument, len(p.instruments))
	copy(out, p.instruments)
	return out, nil
}

// Series returns the canned series for symbol, truncated to limit.
func (p *Provider) Series(ctx context.Context, symbol, _ string, limit int) (*domain.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.failSeries[symbol]; err != nil {
		return nil, err
	}

	s, ok := p.series[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}

	points := s.Points
	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	out := &domain.PriceSeries{Symbol: symbol, Points: make([]domain.PricePoint, len(points))}
	copy(out.Points, points)
	return out, nil
}

// syntheticWalk builds a positive random walk on a fixed time grid.
func syntheticWalk(symbol string, barCount int, intervalMs, seed int64) *domain.PriceSeries {
	for _, ch := range symbol {
		seed = seed*31 + int64(ch)
	}
	rng := rand.New(rand.NewSource(seed))

	s := &domain.PriceSeries{Symbol: symbol}
	price := 50 + 100*rng.Float64()
	for i := 0; i < barCount; i++ {
		price += rng.NormFloat64()
		if price < 1 {
			price = 1
		}
		s.Points = append(s.Points, domain.PricePoint{
			TimestampMs: int64(i) * intervalMs,
			Close:       price,
		})
	}
	return s
}
