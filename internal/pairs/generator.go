// Package pairs enumerates candidate instrument pairs for testing.
package pairs

import (
	"sort"

	"pairscan/internal/domain"
)

// Generate returns all C(n,2) unordered pairs of the given symbols in a
// stable order: symbols are sorted lexicographically first, so repeated
// runs over the same universe produce the same pair sequence. Duplicate
// symbols in the input are collapsed; self-pairs never occur.
func Generate(symbols []string) []domain.Pair {
	uniq := dedupeSorted(symbols)

	n := len(uniq)
	if n < 2 {
		return nil
	}

	out := make([]domain.Pair, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, domain.Pair{A: uniq[i], B: uniq[j]})
		}
	}
	return out
}

// dedupeSorted returns the unique symbols in lexicographic order without
// mutating the input.
func dedupeSorted(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
