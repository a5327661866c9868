package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// wsReadTimeout bounds the wait for the first snapshot frame. The
// ticker array stream pushes roughly once per second.
const wsReadTimeout = 10 * time.Second

// volumeSnapshotWS reads a single frame of the all-market 24h ticker
// stream, yielding the volume snapshot for the whole universe in one
// round trip instead of one REST call per symbol.
func (c *Client) volumeSnapshotWS(ctx context.Context) (map[string]float64, error) {
	dialer := websocket.Dialer{HandshakeTimeout: wsReadTimeout}
	conn, _, err := dialer.DialContext(ctx, c.wsURL+"/!ticker@arr", nil)
	if err != nil {
		return nil, fmt.Errorf("dial ticker stream: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(wsReadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read ticker frame: %w", err)
	}

	var tickers []wsTicker
	if err := json.Unmarshal(payload, &tickers); err != nil {
		return nil, fmt.Errorf("decode ticker frame: %w", err)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("empty ticker frame")
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
