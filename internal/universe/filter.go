// Package universe reduces the instrument universe to contracts passing
// the configured liquidity thresholds.
package universe

import (
	"github.com/rs/zerolog"

	"pairscan/internal/config"
	"pairscan/internal/domain"
)

// Filter applies the configured liquidity criteria to an instrument
// snapshot. Selected criteria combine with logical AND.
type Filter struct {
	mode   string
	minVol float64
	minOI  float64
	log    zerolog.Logger
}

// NewFilter creates a filter from a validated configuration.
func NewFilter(cfg *config.Screen, log zerolog.Logger) *Filter {
	return &Filter{
		mode:   cfg.FilterMode,
		minVol: cfg.MinVolume,
		minOI:  cfg.MinOpenInterest,
		log:    log,
	}
}

// Apply returns the subset of instruments satisfying every selected
// threshold, preserving input order. Mode "none" returns the input
// unchanged.
func (f *Filter) Apply(instruments []domain.Instrument) []domain.Instrument {
	if f.mode == config.FilterNone {
		return instruments
	}

	checkVol := f.mode == config.FilterVolume || f.mode == config.FilterBoth
	checkOI := f.mode == config.FilterOpenInterest || f.mode == config.FilterBoth

	out := make([]domain.Instrument, 0, len(instruments))
	for _, ins := range instruments {
		if checkVol && ins.QuoteVolume < f.minVol {
			continue
		}
		if checkOI && ins.OpenInterest < f.minOI {
			continue
		}
		out = append(out, ins)
	}

	f.log.Info().
		Str("mode", f.mode).
		Int("in", len(instruments)).
		Int("out", len(out)).
		Msg("liquidity filter applied")
	return out
}
