package memory

import (
	"context"
	"sync"

	"pairscan/internal/domain"
	"pairscan/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu  sync.RWMutex
	set *domain.RankedSet
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Save overwrites the stored set, preserving entry order.
func (s *ResultStore) Save(_ context.Context, rs *domain.RankedSet) error {
	if rs == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	entries := make([]domain.CointResult, len(rs.Entries))
	copy(entries, rs.Entries)
	s.set = &domain.RankedSet{Entries: entries}
	return nil
}

// Load returns the stored set in rank order, or ErrNotFound.
func (s *ResultStore) Load(_ context.Context) (*domain.RankedSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.set == nil {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	entries := make([]domain.CointResult, len(s.set.Entries))
	copy(entries, s.set.Entries)
	return &domain.RankedSet{Entries: entries}, nil
}
