package clickhouse

import (
	"context"
	"fmt"

	"pairscan/internal/domain"
	"pairscan/internal/storage"
)

// SeriesArchive implements storage.SeriesArchive using ClickHouse.
// Every screening run appends its aligned close series under the run ID
// so past inputs stay queryable for offline analysis.
type SeriesArchive struct {
	conn *Conn
}

// NewSeriesArchive creates a new SeriesArchive.
func NewSeriesArchive(conn *Conn) *SeriesArchive {
	return &SeriesArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.SeriesArchive = (*SeriesArchive)(nil)

// ArchiveSeries appends all points of the given series in one batch.
func (a *SeriesArchive) ArchiveSeries(ctx context.Context, runID string, series []*domain.PriceSeries) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(series) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO series_archive (
			run_id, symbol, timestamp_ms, close
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, s := range series {
		for _, p := range s.Points {
			if err := batch.Append(runID, s.Symbol, uint64(p.TimestampMs), p.Close); err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// SeriesByRun retrieves one archived series, ordered by timestamp ASC.
func (a *SeriesArchive) SeriesByRun(ctx context.Context, runID, symbol string) (*domain.PriceSeries, error) {
	query := `
		SELECT timestamp_ms, close
		FROM series_archive
		WHERE run_id = ? AND symbol = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := a.conn.Query(ctx, query, runID, symbol)
	if err != nil {
		return nil, fmt.Errorf("query archived series: %w", err)
	}
	defer rows.Close()

	s := &domain.PriceSeries{Symbol: symbol}
	for rows.Next() {
		var timestampMs uint64
		var closePrice float64
		if err := rows.Scan(&timestampMs, &closePrice); err != nil {
			return nil, fmt.Errorf("scan archived point: %w", err)
		}
		s.Points = append(s.Points, domain.PricePoint{TimestampMs: int64(timestampMs), Close: closePrice})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived points: %w", err)
	}

	if len(s.Points) == 0 {
		return nil, storage.ErrNotFound
	}
	return s, nil
}

// RunIDs lists distinct archived run IDs, newest first.
func (a *SeriesArchive) RunIDs(ctx context.Context) ([]string, error) {
	rows, err := a.conn.Query(ctx, `SELECT DISTINCT run_id FROM series_archive ORDER BY run_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query run ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run ids: %w", err)
	}
	return ids, nil
}
