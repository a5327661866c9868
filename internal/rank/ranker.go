// Package rank turns the engine's unordered results into the persisted
// ranked set.
package rank

import (
	"sort"

	"pairscan/internal/domain"
)

// Rank filters results to p-value strictly below threshold, sorts
// ascending by p-value and truncates to topN. The sort is stable over
// the input order, so feeding results in the generator's deterministic
// pair order makes equal p-values reproducible across runs. Fewer than
// topN survivors is a valid, smaller set.
func Rank(results []domain.CointResult, threshold float64, topN int) *domain.RankedSet {
	passed := make([]domain.CointResult, 0, len(results))
	for _, r := range results {
		if r.PValue < threshold {
			passed = append(passed, r)
		}
	}

	sort.SliceStable(passed, func(i, j int) bool {
		return passed[i].PValue < passed[j].PValue
	})

	if topN > 0 && len(passed) > topN {
		passed = passed[:topN]
	}
	return &domain.RankedSet{Entries: passed}
}

// ByPairOrder reorders results into the candidate order produced by the
// pair generator, restoring determinism after unordered collection from
// the worker pool.
func ByPairOrder(results []domain.CointResult, candidates []domain.Pair) []domain.CointResult {
	index := make(map[domain.Pair]int, len(candidates))
	for i, p := range candidates {
		index[p] = i
	}

	out := make([]domain.CointResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		return index[out[i].Pair] < index[out[j].Pair]
	})
	return out
}
