package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"

	"pairscan/internal/domain"
)

// exchangeInfo is the /fapi/v1/exchangeInfo response subset we use.
type exchangeInfo struct {
	Symbols []symbolInfo `json:"symbols"`
}

type symbolInfo struct {
	Symbol       string `json:"symbol"`
	BaseAsset    string `json:"baseAsset"`
	QuoteAsset   string `json:"quoteAsset"`
	ContractType string `json:"contractType"`
	Status       string `json:"status"`
}

// ticker24h is one /fapi/v1/ticker/24hr entry.
type ticker24h struct {
	Symbol      string `json:"symbol"`
	QuoteVolume string `json:"quoteVolume"`
}

// openInterestResp is the /fapi/v1/openInterest response.
type openInterestResp struct {
	Symbol       string `json:"symbol"`
	OpenInterest string `json:"openInterest"`
}

// wsTicker is one entry of the !ticker@arr stream payload.
type wsTicker struct {
	Symbol      string `json:"s"`
	QuoteVolume string `json:"q"`
}

// parseKline converts one raw kline row. Binance encodes each bar as a
// mixed-type array: [openTime, open, high, low, close, volume, ...];
// we keep openTime and close.
func parseKline(raw []json.RawMessage) (domain.PricePoint, error) {
	if len(raw) < 5 {
		return domain.PricePoint{}, fmt.Errorf("kline row has %d fields", len(raw))
	}

	var openTime int64
	if err := json.Unmarshal(raw[0], &openTime); err != nil {
		return domain.PricePoint{}, fmt.Errorf("open time: %w", err)
	}

	var closeStr string
	if err := json.Unmarshal(raw[4], &closeStr); err != nil {
		return domain.PricePoint{}, fmt.Errorf("close price: %w", err)
	}
	closePrice, err := strconv.ParseFloat(closeStr, 64)
	if err != nil {
		return domain.PricePoint{}, fmt.Errorf("close price: %w", err)
	}

	return domain.PricePoint{TimestampMs: openTime, Close: closePrice}, nil
}
