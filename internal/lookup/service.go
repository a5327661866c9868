// Package lookup answers interactive queries against a persisted
// ranked result set.
package lookup

import (
	"strings"

	"pairscan/internal/domain"
)

// Quote suffix stripped when matching a bare base-asset query like
// "BTC" against contract symbols like "BTCUSDT".
const quoteSuffix = "USDT"

// Service is a read-only query layer over one ranked result set.
type Service struct {
	set *domain.RankedSet
}

// NewService creates a Service over a loaded set. A nil set behaves as
// an empty one.
func NewService(set *domain.RankedSet) *Service {
	if set == nil {
		set = &domain.RankedSet{}
	}
	return &Service{set: set}
}

// All returns every unique ranked pair in rank order.
func (s *Service) All() []domain.CointResult {
	seen := make(map[domain.Pair]struct{}, len(s.set.Entries))
	out := make([]domain.CointResult, 0, len(s.set.Entries))
	for _, e := range s.set.Entries {
		if _, dup := seen[e.Pair]; dup {
			continue
		}
		seen[e.Pair] = struct{}{}
		out = append(out, e)
	}
	return out
}

// BySymbol returns every entry where either leg matches the query,
// preserving rank order. Matching is case-insensitive and accepts
// either the full contract symbol or the bare base asset. A query with
// no matches returns an empty slice, not an error.
func (s *Service) BySymbol(query string) []domain.CointResult {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []domain.CointResult
	for _, e := range s.All() {
		if matches(e.Pair.A, q) || matches(e.Pair.B, q) {
			out = append(out, e)
		}
	}
	return out
}

func matches(symbol, query string) bool {
	if symbol == query {
		return true
	}
	return strings.TrimSuffix(symbol, quoteSuffix) == query
}
