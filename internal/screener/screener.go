// Package screener coordinates a full screening run.
// Flow: universe snapshot → liquidity filter → series alignment →
// pair generation → cointegration testing → ranking → persistence.
package screener

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pairscan/internal/coint"
	"pairscan/internal/config"
	"pairscan/internal/domain"
	"pairscan/internal/observability"
	"pairscan/internal/pairs"
	"pairscan/internal/rank"
	"pairscan/internal/series"
	"pairscan/internal/storage"
	"pairscan/internal/universe"
)

// Run outcomes reported in RunResult.
const (
	OutcomeOK               = "ok"
	OutcomeEmptyUniverse    = "empty_universe"
	OutcomeNoSignificant    = "no_significant_pairs"
	OutcomeInsufficientData = "insufficient_data"
)

// Provider supplies the tradable universe and historical price series.
type Provider interface {
	Instruments(ctx context.Context) ([]domain.Instrument, error)
	series.Fetcher
}

// Screener runs the end-to-end screening pipeline.
type Screener struct {
	provider Provider
	store    storage.ResultStore
	mirrors  []storage.ResultStore
	archive  storage.SeriesArchive

	cfg     *config.Screen
	log     zerolog.Logger
	metrics *observability.Metrics

	now func() time.Time
}

// Options for creating a Screener.
type Options struct {
	// Required
	Provider    Provider
	ResultStore storage.ResultStore
	Config      *config.Screen

	// Optional secondary sinks. Failures are logged, never fatal.
	MirrorStores  []storage.ResultStore
	SeriesArchive storage.SeriesArchive

	Logger  zerolog.Logger
	Metrics *observability.Metrics

	// Clock override for tests.
	Now func() time.Time
}

// New creates a new Screener.
func New(opts Options) *Screener {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Screener{
		provider: opts.Provider,
		store:    opts.ResultStore,
		mirrors:  opts.MirrorStores,
		archive:  opts.SeriesArchive,
		cfg:      opts.Config,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		now:      now,
	}
}

// RunResult contains counters from a screening run.
type RunResult struct {
	RunID          string
	Outcome        string
	UniverseSize   int
	FilteredSize   int
	SeriesRetained int
	CandidatePairs int
	PairsTested    int
	PairsFailed    int
	Significant    int
}

// Run executes the full screening pipeline. Empty intermediate results
// (too few instruments, nothing significant) are reported through the
// RunResult outcome, not as errors. Persistence to the primary store is
// the only phase whose failure aborts the run after testing completes.
func (s *Screener) Run(ctx context.Context) (*RunResult, error) {
	started := s.now()
	result := &RunResult{RunID: started.UTC().Format("20060102T150405Z")}

	res, err := s.run(ctx, result)
	if s.metrics != nil {
		s.metrics.RunDuration.Observe(s.now().Sub(started).Seconds())
		outcome := "error"
		if err == nil {
			outcome = res.Outcome
		}
		s.metrics.RunsTotal.WithLabelValues(outcome).Inc()
	}
	return res, err
}

func (s *Screener) run(ctx context.Context, result *RunResult) (*RunResult, error) {
	// Phase 1: universe snapshot
	s.log.Info().Str("run_id", result.RunID).Msg("fetching instrument universe")
	instruments, err := s.provider.Instruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}
	result.UniverseSize = len(instruments)
	if s.metrics != nil {
		s.metrics.UniverseSize.Set(float64(len(instruments)))
	}

	// Phase 2: liquidity filter
	filter := universe.NewFilter(s.cfg, s.log)
	filtered := filter.Apply(instruments)
	result.FilteredSize = len(filtered)
	if s.metrics != nil {
		s.metrics.FilteredSize.Set(float64(len(filtered)))
	}
	if len(filtered) < 2 {
		s.log.Warn().Int("filtered", len(filtered)).Msg("fewer than two instruments passed the filter")
		result.Outcome = OutcomeEmptyUniverse
		return result, nil
	}

	// Phase 3: series alignment
	symbols := make([]string, 0, len(filtered))
	for _, inst := range filtered {
		symbols = append(symbols, inst.Symbol)
	}
	aligner := series.NewAligner(s.provider, s.cfg, s.log, s.metrics)
	aligned, err := aligner.Align(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("align series: %w", err)
	}
	result.SeriesRetained = len(aligned)
	if s.metrics != nil {
		s.metrics.SeriesRetained.Set(float64(len(aligned)))
	}
	if len(aligned) < 2 {
		s.log.Warn().Int("retained", len(aligned)).Msg("fewer than two usable series after alignment")
		result.Outcome = OutcomeInsufficientData
		return result, nil
	}

	if s.archive != nil {
		s.archiveSeries(ctx, result.RunID, aligned)
	}

	// Phase 4: pair generation
	retained := make([]string, 0, len(aligned))
	for sym := range aligned {
		retained = append(retained, sym)
	}
	candidates := pairs.Generate(retained)
	result.CandidatePairs = len(candidates)
	s.log.Info().Int("pairs", len(candidates)).Msg("generated candidate pairs")

	// Phase 5: cointegration testing
	engine := coint.NewEngine(coint.Options{
		MinPoints: s.cfg.MinDataPoints,
		Workers:   s.cfg.MaxConcurrentTests,
		Logger:    s.log,
		Metrics:   s.metrics,
	})
	tested, err := engine.Run(ctx, aligned, candidates)
	if err != nil {
		return nil, fmt.Errorf("cointegration tests: %w", err)
	}
	result.PairsTested = len(tested)
	result.PairsFailed = len(candidates) - len(tested)

	// Phase 6: ranking
	ordered := rank.ByPairOrder(tested, candidates)
	ranked := rank.Rank(ordered, s.cfg.SignificanceThreshold, s.cfg.TopN)
	result.Significant = len(ranked.Entries)
	if s.metrics != nil {
		s.metrics.PairsSignificant.Set(float64(len(ranked.Entries)))
	}
	if len(ranked.Entries) == 0 {
		s.log.Warn().
			Float64("significance", s.cfg.SignificanceThreshold).
			Int("tested", len(tested)).
			Msg("no pairs passed the significance threshold")
		result.Outcome = OutcomeNoSignificant
	} else {
		result.Outcome = OutcomeOK
	}

	// Phase 7: persistence. An empty set is still saved so the output
	// always reflects the latest run.
	if err := s.store.Save(ctx, ranked); err != nil {
		return nil, fmt.Errorf("save results: %w", err)
	}
	for _, mirror := range s.mirrors {
		if err := mirror.Save(ctx, ranked); err != nil {
			s.log.Error().Err(err).Msg("mirror store save failed")
		}
	}

	s.log.Info().
		Str("run_id", result.RunID).
		Int("universe", result.UniverseSize).
		Int("filtered", result.FilteredSize).
		Int("retained", result.SeriesRetained).
		Int("tested", result.PairsTested).
		Int("significant", result.Significant).
		Msg("screening run completed")
	return result, nil
}

func (s *Screener) archiveSeries(ctx context.Context, runID string, aligned map[string]*domain.PriceSeries) {
	all := make([]*domain.PriceSeries, 0, len(aligned))
	for _, ps := range aligned {
		all = append(all, ps)
	}
	if err := s.archive.ArchiveSeries(ctx, runID, all); err != nil {
		s.log.Error().Err(err).Str("run_id", runID).Msg("series archive failed")
	}
}
