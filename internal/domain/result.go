package domain

// CointResult is the outcome of one Engle-Granger test. Immutable once
// produced by the engine.
type CointResult struct {
	Pair       Pair
	Statistic  float64    // ADF tau statistic on the regression residuals
	PValue     float64    // MacKinnon approximate p-value
	HedgeRatio float64    // slope of the cointegrating regression
	CritValues [3]float64 // 1%, 5%, 10% critical values
}

// RankedSet is the persisted outcome of a screening run: results below
// the significance threshold, sorted ascending by p-value, truncated to
// the configured top-N. Entry order is the rank order.
type RankedSet struct {
	Entries []CointResult
}

// Len returns the number of ranked entries.
func (r *RankedSet) Len() int {
	return len(r.Entries)
}
