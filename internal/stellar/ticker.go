package stellar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nucleo/portfolio-tracker/internal/config"
	"github.com/nucleo/portfolio-tracker/internal/errors"
)

const sourceTicker = "ticker"

// TickerClient fetches the external price ticker feed, which carries the
// native asset's fiat exchange rate and per-asset activity metadata.
type TickerClient struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewTickerClient creates a ticker client from the Stellar configuration
func NewTickerClient(cfg *config.StellarConfig) *TickerClient {
	return &TickerClient{
		url:     cfg.TickerURL,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		timeout: cfg.RequestTimeout,
	}
}

// Fetch retrieves the current ticker feed
func (c *TickerClient) Fetch(ctx context.Context) (*Ticker, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, errors.NewUpstream(sourceTicker, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Classify(sourceTicker, err)
	}
	defer resp.Body.Close() // nolint:errcheck // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstream(sourceTicker, fmt.Errorf("unexpected status %d from ticker", resp.StatusCode))
	}

	var ticker Ticker
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return nil, errors.NewMalformed(sourceTicker, err)
	}

	return &ticker, nil
}
