package domain

// Instrument is an immutable snapshot of a tradeable contract taken once
// per screening run.
type Instrument struct {
	Symbol       string  // contract symbol, e.g. "BTCUSDT"
	BaseAsset    string  // base asset, e.g. "BTC"
	QuoteVolume  float64 // 24h quote volume
	OpenInterest float64 // current open interest, 0 if unavailable
}
