package domain

// PricePoint is a single close-price sample.
type PricePoint struct {
	TimestampMs int64   // bar open time, Unix milliseconds
	Close       float64 // close price
}

// PriceSeries is the aligned close-price history for one instrument,
// chronologically ordered with a fixed cadence and no gaps.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// Len returns the number of samples in the series.
func (s *PriceSeries) Len() int {
	return len(s.Points)
}

// Closes returns the close prices in chronological order.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// Timestamps returns the sample timestamps in chronological order.
func (s *PriceSeries) Timestamps() []int64 {
	out := make([]int64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.TimestampMs
	}
	return out
}
