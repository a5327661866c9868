package domain

// Pair is an unordered pair of distinct instrument symbols, stored in
// canonical form: A is lexicographically smaller than B. Canonical form
// guarantees the same unordered pair never appears twice in a run.
type Pair struct {
	A string
	B string
}

// NewPair returns the canonical pair for two symbols.
func NewPair(x, y string) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// Contains reports whether symbol is one of the pair's legs.
func (p Pair) Contains(symbol string) bool {
	return p.A == symbol || p.B == symbol
}

// String returns the "A-B" form used in logs and reports.
func (p Pair) String() string {
	return p.A + "-" + p.B
}
