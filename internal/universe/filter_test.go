package universe

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairscan/internal/config"
	"pairscan/internal/domain"
)

func testUniverse() []domain.Instrument {
	return []domain.Instrument{
		{Symbol: "BTCUSDT", QuoteVolume: 900, OpenInterest: 500},
		{Symbol: "ETHUSDT", QuoteVolume: 600, OpenInterest: 50},
		{Symbol: "SOLUSDT", QuoteVolume: 100, OpenInterest: 400},
		{Symbol: "DOGEUSDT", QuoteVolume: 50, OpenInterest: 10},
	}
}

func newFilter(t *testing.T, mode string, minVol, minOI float64) *Filter {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.FilterMode = mode
	cfg.MinVolume = minVol
	cfg.MinOpenInterest = minOI
	require.NoError(t, cfg.Validate())
	return NewFilter(cfg, zerolog.Nop())
}

func symbols(ins []domain.Instrument) []string {
	out := make([]string, len(ins))
	for i, x := range ins {
		out[i] = x.Symbol
	}
	return out
}

func TestFilter_VolumeOnly(t *testing.T) {
	f := newFilter(t, config.FilterVolume, 500, 1)

	got := f.Apply(testUniverse())
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols(got))
}

func TestFilter_OpenInterestOnly(t *testing.T) {
	f := newFilter(t, config.FilterOpenInterest, 1, 300)

	got := f.Apply(testUniverse())
	assert.Equal(t, []string{"BTCUSDT", "SOLUSDT"}, symbols(got))
}

func TestFilter_BothIsConjunction(t *testing.T) {
	f := newFilter(t, config.FilterBoth, 500, 300)

	got := f.Apply(testUniverse())
	assert.Equal(t, []string{"BTCUSDT"}, symbols(got))
}

func TestFilter_NonePassesThrough(t *testing.T) {
	f := newFilter(t, config.FilterNone, 500, 300)

	got := f.Apply(testUniverse())
	assert.Equal(t, testUniverse(), got)
}

// Output size must be non-increasing as thresholds increase.
func TestFilter_MonotoneInThresholds(t *testing.T) {
	prev := len(testUniverse())
	for _, minVol := range []float64{1, 50, 100, 600, 900, 1000} {
		f := newFilter(t, config.FilterVolume, minVol, 1)
		n := len(f.Apply(testUniverse()))
		assert.LessOrEqual(t, n, prev, "minVol=%v", minVol)
		prev = n
	}
}

func TestFilter_OutputIsSubset(t *testing.T) {
	f := newFilter(t, config.FilterBoth, 500, 300)

	in := testUniverse()
	index := make(map[string]domain.Instrument, len(in))
	for _, ins := range in {
		index[ins.Symbol] = ins
	}

	for _, ins := range f.Apply(in) {
		orig, ok := index[ins.Symbol]
		require.True(t, ok, "filter invented instrument %s", ins.Symbol)
		assert.Equal(t, orig, ins)
		assert.GreaterOrEqual(t, ins.QuoteVolume, 500.0)
		assert.GreaterOrEqual(t, ins.OpenInterest, 300.0)
	}
}

func TestFilter_EmptyUniverse(t *testing.T) {
	f := newFilter(t, config.FilterBoth, 500, 300)
	assert.Empty(t, f.Apply(nil))
}
