package screener

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"pairscan/internal/config"
	"pairscan/internal/domain"
	"pairscan/internal/exchange/stub"
	"pairscan/internal/storage"
	"pairscan/internal/storage/memory"
)

const testIntervalMs = 4 * 60 * 60 * 1000

func testConfig(t *testing.T) *config.Screen {
	t.Helper()
	cfg := &config.Screen{}
	require.NoError(t, defaults.Set(cfg))
	cfg.LookbackCount = 120
	cfg.MinDataPoints = 50
	cfg.MinVolume = 1e6
	cfg.MinOpenInterest = 1e5
	cfg.MaxConcurrentTests = 4
	cfg.FetchConcurrency = 4
	require.NoError(t, cfg.Validate())
	return cfg
}

func liquidInstrument(symbol string) domain.Instrument {
	return domain.Instrument{Symbol: symbol, BaseAsset: symbol[:1], QuoteVolume: 1e9, OpenInterest: 1e8}
}

// walkSeries builds a random walk on the shared 4h grid.
func walkSeries(symbol string, n int, seed int64) *domain.PriceSeries {
	rng := rand.New(rand.NewSource(seed))
	points := make([]domain.PricePoint, n)
	price := 100.0
	for i := range points {
		price += rng.NormFloat64()
		points[i] = domain.PricePoint{TimestampMs: int64(i) * testIntervalMs, Close: price}
	}
	return &domain.PriceSeries{Symbol: symbol, Points: points}
}

// linkedSeries builds a series tied to base by a fixed hedge ratio plus
// stationary noise, so the pair is cointegrated.
func linkedSeries(symbol string, base *domain.PriceSeries, ratio float64, seed int64) *domain.PriceSeries {
	rng := rand.New(rand.NewSource(seed))
	points := make([]domain.PricePoint, len(base.Points))
	for i, p := range base.Points {
		points[i] = domain.PricePoint{TimestampMs: p.TimestampMs, Close: ratio*p.Close + 0.5*rng.NormFloat64()}
	}
	return &domain.PriceSeries{Symbol: symbol, Points: points}
}

type failingStore struct{ err error }

func (f *failingStore) Save(context.Context, *domain.RankedSet) error  { return f.err }
func (f *failingStore) Load(context.Context) (*domain.RankedSet, error) { return nil, f.err }

type recordingArchive struct {
	runID string
	count int
	err   error
}

func (r *recordingArchive) ArchiveSeries(_ context.Context, runID string, series []*domain.PriceSeries) error {
	r.runID = runID
	r.count = len(series)
	return r.err
}

func newScreener(t *testing.T, provider Provider, cfg *config.Screen, extra func(*Options)) (*Screener, storage.ResultStore) {
	t.Helper()
	store := memory.NewResultStore()
	opts := Options{
		Provider:    provider,
		ResultStore: store,
		Config:      cfg,
		Logger:      zerolog.Nop(),
		Now:         func() time.Time { return time.Unix(1700000000, 0) },
	}
	if extra != nil {
		extra(&opts)
	}
	return New(opts), store
}

func TestRun_FindsCointegratedPair(t *testing.T) {
	cfg := testConfig(t)
	instruments := []domain.Instrument{
		liquidInstrument("AAAUSDT"),
		liquidInstrument("BBBUSDT"),
		liquidInstrument("CCCUSDT"),
	}
	provider := stub.NewProvider(instruments, cfg.LookbackCount, testIntervalMs, 1)

	base := walkSeries("AAAUSDT", cfg.LookbackCount, 7)
	provider.SetSeries("AAAUSDT", base)
	provider.SetSeries("BBBUSDT", linkedSeries("BBBUSDT", base, 2.0, 8))
	// CCCUSDT keeps its independent walk.

	s, store := newScreener(t, provider, cfg, nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, OutcomeOK, result.Outcome)
	require.Equal(t, 3, result.UniverseSize)
	require.Equal(t, 3, result.FilteredSize)
	require.Equal(t, 3, result.SeriesRetained)
	require.Equal(t, 3, result.CandidatePairs)
	require.Equal(t, 3, result.PairsTested)
	require.Zero(t, result.PairsFailed)
	require.GreaterOrEqual(t, result.Significant, 1)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, saved.Entries, result.Significant)
	require.Equal(t, domain.NewPair("AAAUSDT", "BBBUSDT"), saved.Entries[0].Pair)
	require.Less(t, saved.Entries[0].PValue, cfg.SignificanceThreshold)
}

func TestRun_FailedFetchDropsSymbolOnly(t *testing.T) {
	cfg := testConfig(t)
	instruments := []domain.Instrument{
		liquidInstrument("AAAUSDT"),
		liquidInstrument("BBBUSDT"),
		liquidInstrument("DDDUSDT"),
	}
	provider := stub.NewProvider(instruments, cfg.LookbackCount, testIntervalMs, 1)
	base := walkSeries("AAAUSDT", cfg.LookbackCount, 7)
	provider.SetSeries("AAAUSDT", base)
	provider.SetSeries("BBBUSDT", linkedSeries("BBBUSDT", base, 1.5, 9))
	provider.FailSeries("DDDUSDT", errors.New("upstream 500"))

	s, store := newScreener(t, provider, cfg, nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, OutcomeOK, result.Outcome)
	require.Equal(t, 3, result.FilteredSize)
	require.Equal(t, 2, result.SeriesRetained)
	require.Equal(t, 1, result.CandidatePairs)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	for _, entry := range saved.Entries {
		require.False(t, entry.Pair.Contains("DDDUSDT"))
	}
}

func TestRun_FilterLeavesTooFewInstruments(t *testing.T) {
	cfg := testConfig(t)
	instruments := []domain.Instrument{
		liquidInstrument("AAAUSDT"),
		{Symbol: "BBBUSDT", BaseAsset: "B", QuoteVolume: 10, OpenInterest: 10},
		{Symbol: "CCCUSDT", BaseAsset: "C", QuoteVolume: 10, OpenInterest: 10},
	}
	provider := stub.NewProvider(instruments, cfg.LookbackCount, testIntervalMs, 1)

	s, store := newScreener(t, provider, cfg, nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, OutcomeEmptyUniverse, result.Outcome)
	require.Equal(t, 1, result.FilteredSize)
	require.Zero(t, result.CandidatePairs)

	// Nothing persisted for an aborted run.
	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRun_AllFetchesFail(t *testing.T) {
	cfg := testConfig(t)
	instruments := []domain.Instrument{liquidInstrument("AAAUSDT"), liquidInstrument("BBBUSDT")}
	provider := stub.NewProvider(instruments, cfg.LookbackCount, testIntervalMs, 1)
	provider.FailSeries("AAAUSDT", errors.New("boom"))
	provider.FailSeries("BBBUSDT", errors.New("boom"))

	s, _ := newScreener(t, provider, cfg, nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeInsufficientData, result.Outcome)
	require.Zero(t, result.SeriesRetained)
}

func TestRun_NoSignificantPairsStillPersists(t *testing.T) {
	cfg := testConfig(t)
	cfg.SignificanceThreshold = 1e-12
	instruments := []domain.Instrument{liquidInstrument("AAAUSDT"), liquidInstrument("BBBUSDT")}
	provider := stub.NewProvider(instruments, cfg.LookbackCount, testIntervalMs, 1)
	provider.SetSeries("AAAUSDT", walkSeries("AAAUSDT", cfg.LookbackCount, 21))
	provider.SetSeries("BBBUSDT", walkSeries("BBBUSDT", cfg.LookbackCount, 22))

	s, store := newScreener(t, provider, cfg, nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeNoSignificant, result.Outcome)
	require.Zero(t, result.Significant)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, saved.Entries)
}

func TestRun_PrimaryStoreFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	instruments := []domain.Instrument{liquidInstrument("AAAUSDT"), liquidInstrument("BBBUSDT")}
	provider := stub.NewProvider(instruments, cfg.LookbackCount, testIntervalMs, 1)

	s, _ := newScreener(t, provider, cfg, func(o *Options) {
		o.ResultStore = &failingStore{err: errors.New("disk full")}
	})
	_, err := s.Run(context.Background())
	require.ErrorContains(t, err, "save results")
}

func TestRun_MirrorFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	instruments := []domain.Instrument{liquidInstrument("AAAUSDT"), liquidInstrument("BBBUSDT")}
	provider := stub.NewProvider(instruments, cfg.LookbackCount, testIntervalMs, 1)

	s, store := newScreener(t, provider, cfg, func(o *Options) {
		o.MirrorStores = []storage.ResultStore{&failingStore{err: errors.New("db down")}}
	})
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.Outcome)

	_, err = store.Load(context.Background())
	require.NoError(t, err)
}

func TestRun_ArchivesAlignedSeries(t *testing.T) {
	cfg := testConfig(t)
	instruments := []domain.Instrument{
		liquidInstrument("AAAUSDT"),
		liquidInstrument("BBBUSDT"),
		liquidInstrument("CCCUSDT"),
	}
	provider := stub.NewProvider(instruments, cfg.LookbackCount, testIntervalMs, 1)
	provider.FailSeries("CCCUSDT", errors.New("boom"))

	archive := &recordingArchive{}
	s, _ := newScreener(t, provider, cfg, func(o *Options) {
		o.SeriesArchive = archive
	})
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, result.RunID, archive.runID)
	require.Equal(t, 2, archive.count)
}

func TestRun_ArchiveFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	instruments := []domain.Instrument{liquidInstrument("AAAUSDT"), liquidInstrument("BBBUSDT")}
	provider := stub.NewProvider(instruments, cfg.LookbackCount, testIntervalMs, 1)

	s, _ := newScreener(t, provider, cfg, func(o *Options) {
		o.SeriesArchive = &recordingArchive{err: errors.New("clickhouse down")}
	})
	_, err := s.Run(context.Background())
	require.NoError(t, err)
}

func TestRun_Cancellation(t *testing.T) {
	cfg := testConfig(t)
	instruments := []domain.Instrument{liquidInstrument("AAAUSDT"), liquidInstrument("BBBUSDT")}
	provider := stub.NewProvider(instruments, cfg.LookbackCount, testIntervalMs, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, _ := newScreener(t, provider, cfg, nil)
	_, err := s.Run(ctx)
	require.Error(t, err)
}
