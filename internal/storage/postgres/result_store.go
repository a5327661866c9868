package postgres

import (
	"context"
	"fmt"

	"pairscan/internal/domain"
	"pairscan/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL. Each
// Save replaces the full table contents so the table always holds the
// latest run.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Save atomically replaces the stored ranking with rs.
func (s *ResultStore) Save(ctx context.Context, rs *domain.RankedSet) error {
	if rs == nil {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM ranked_pairs`); err != nil {
		return fmt.Errorf("clear ranked pairs: %w", err)
	}

	query := `
		INSERT INTO ranked_pairs (
			rank, symbol_a, symbol_b, statistic, p_value, hedge_ratio
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, entry := range rs.Entries {
		_, err := tx.Exec(ctx, query,
			i+1, entry.Pair.A, entry.Pair.B,
			entry.Statistic, entry.PValue, entry.HedgeRatio,
		)
		if err != nil {
			return fmt.Errorf("insert ranked pair %s: %w", entry.Pair, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Load returns the stored ranking in rank order. An empty table loads
// as an empty set.
func (s *ResultStore) Load(ctx context.Context) (*domain.RankedSet, error) {
	query := `
		SELECT symbol_a, symbol_b, statistic, p_value, hedge_ratio
		FROM ranked_pairs
		ORDER BY rank
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ranked pairs: %w", err)
	}
	defer rows.Close()

	rs := &domain.RankedSet{}
	for rows.Next() {
		var entry domain.CointResult
		if err := rows.Scan(&entry.Pair.A, &entry.Pair.B, &entry.Statistic, &entry.PValue, &entry.HedgeRatio); err != nil {
			return nil, fmt.Errorf("scan ranked pair: %w", err)
		}
		rs.Entries = append(rs.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked pairs: %w", err)
	}
	return rs, nil
}
