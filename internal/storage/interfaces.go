package storage

import (
	"context"

	"pairscan/internal/domain"
)

// ResultStore persists the ranked outcome of a screening run. Save fully
// replaces any previously stored set; readers never observe a partially
// written set.
type ResultStore interface {
	// Save overwrites the stored set with rs, preserving entry order.
	Save(ctx context.Context, rs *domain.RankedSet) error

	// Load returns the stored set in rank order. Returns ErrNotFound if
	// no set has been saved.
	Load(ctx context.Context) (*domain.RankedSet, error)
}

// SeriesArchive records the aligned close series used by a run, keyed by
// run ID, for offline research queries.
type SeriesArchive interface {
	// ArchiveSeries inserts all points of the given series under runID.
	ArchiveSeries(ctx context.Context, runID string, series []*domain.PriceSeries) error
}
