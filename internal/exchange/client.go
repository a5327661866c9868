// Package exchange implements the market-data provider against the
// Binance USDT-margined futures API.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pairscan/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://fapi.binance.com"
	DefaultWSURL       = "wss://fstream.binance.com/ws"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultRateLimit   = 10 // requests per second
)

const quoteAsset = "USDT"

// Client is a Binance futures market-data client. All requests go
// through a shared rate limiter and retry transient failures with
// exponential backoff.
type Client struct {
	baseURL       string
	wsURL         string
	useWSSnapshot bool
	client        *http.Client
	limiter       *rate.Limiter
	maxRetries    int
	retryDelay    time.Duration
	maxDelay      time.Duration
	backoffMult   float64
	log           zerolog.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL sets the REST endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithWSURL sets the websocket endpoint.
func WithWSURL(u string) ClientOption {
	return func(c *Client) {
		c.wsURL = u
	}
}

// WithWSSnapshot enables or disables the websocket volume snapshot.
func WithWSSnapshot(enabled bool) ClientOption {
	return func(c *Client) {
		c.useWSSnapshot = enabled
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a Binance futures client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		wsURL:         DefaultWSURL,
		useWSSnapshot: true,
		client:        &http.Client{Timeout: DefaultTimeout},
		limiter:       rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		maxRetries:    DefaultMaxRetries,
		retryDelay:    DefaultRetryDelay,
		maxDelay:      DefaultMaxDelay,
		backoffMult:   DefaultBackoffMult,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Instruments lists active USDT-quoted perpetual contracts enriched
// with 24h quote volume and open interest. A symbol whose open interest
// cannot be fetched carries zero OI instead of failing the listing.
func (c *Client) Instruments(ctx context.Context) ([]domain.Instrument, error) {
	var info exchangeInfo
	if err := c.get(ctx, "/fapi/v1/exchangeInfo", nil, &info); err != nil {
		return nil, fmt.Errorf("exchange info: %w", err)
	}

	volumes, err := c.volumeSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("volume snapshot: %w", err)
	}

	var out []domain.Instrument
	for _, s := range info.Symbols {
		if s.Status != "TRADING" || s.QuoteAsset != quoteAsset || s.ContractType != "PERPETUAL" {
			continue
		}

		oi, err := c.openInterest(ctx, s.Symbol)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn().Err(err).Str("symbol", s.Symbol).Msg("open interest unavailable")
			oi = 0
		}

		out = append(out, domain.Instrument{
			Symbol:       s.Symbol,
			BaseAsset:    s.BaseAsset,
			QuoteVolume:  volumes[s.Symbol],
			OpenInterest: oi,
		})
	}
	return out, nil
}

// Series fetches up to limit close-price bars for symbol, oldest first.
func (c *Client) Series(ctx context.Context, symbol, interval string, limit int) (*domain.PriceSeries, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	var raw [][]json.RawMessage
	if err := c.get(ctx, "/fapi/v1/klines", params, &raw); err != nil {
		return nil, fmt.Errorf("klines %s: %w", symbol, err)
	}

	series := &domain.PriceSeries{Symbol: symbol}
	for i, k := range raw {
		p, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("klines %s: bar %d: %w", symbol, i, err)
		}
		series.Points = append(series.Points, p)
	}
	return series, nil
}

// volumeSnapshot returns 24h quote volume per symbol, preferring the
// single-frame websocket snapshot when enabled and falling back to the
// REST ticker on websocket failure.
func (c *Client) volumeSnapshot(ctx context.Context) (map[string]float64, error) {
	if c.useWSSnapshot {
		volumes, err := c.volumeSnapshotWS(ctx)
		if err == nil {
			return volumes, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warn().Err(err).Msg("websocket volume snapshot failed, falling back to REST")
	}

	var tickers []ticker24h
	if err := c.get(ctx, "/fapi/v1/ticker/24hr", nil, &tickers); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		v, err := strconv.ParseFloat(t.QuoteVolume, 64)
		if err != nil {
			continue
		}
		out[t.Symbol] = v
	}
	return out, nil
}

// openInterest fetches current open interest for one symbol.
func (c *Client) openInterest(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp openInterestResp
	if err := c.get(ctx, "/fapi/v1/openInterest", params, &resp); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(resp.OpenInterest, 64)
}

// get performs one rate-limited GET with retry on transient failures.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	delay := c.retryDelay
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = time.Duration(math.Min(float64(delay)*c.backoffMult, float64(c.maxDelay)))
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = c.doGet(ctx, u, out)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		c.log.Debug().Err(lastErr).Str("url", u).Int("attempt", attempt+1).Msg("request retry")
	}
	return fmt.Errorf("after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) doGet(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &transientError{err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transientError{err}
	}

	if resp.StatusCode != http.StatusOK {
		err := &httpError{status: resp.StatusCode, body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return &transientError{err}
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// httpError is a non-OK API response.
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.status, e.body)
}

// transientError marks failures worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}
