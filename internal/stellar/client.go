// Package stellar provides HTTP clients for the external Stellar data
// sources: the Horizon API (accounts, order books) and the price ticker.
package stellar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/nucleo/portfolio-tracker/internal/config"
	"github.com/nucleo/portfolio-tracker/internal/errors"
)

const sourceHorizon = "horizon"

// Client queries the Horizon API. All calls are throttled by a shared
// token bucket and bounded by a per-call timeout.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClient creates a Horizon client from the Stellar configuration
func NewClient(cfg *config.StellarConfig) *Client {
	return &Client{
		baseURL: cfg.HorizonURL,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), int(cfg.RequestsPerSec)),
		timeout: cfg.RequestTimeout,
	}
}

// Account fetches the current balance list for a ledger address.
// Returns a not-found error when Horizon reports the address does not
// exist on the network.
func (c *Client) Account(ctx context.Context, address string) (*Account, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s", c.baseURL, url.PathEscape(address))

	var account Account
	if err := c.getJSON(ctx, endpoint, &account); err != nil {
		return nil, err
	}

	return &account, nil
}

// OrderBook fetches the order book selling the given asset against the
// native asset. Horizon returns bids ordered best-first.
func (c *Client) OrderBook(ctx context.Context, code, issuer string) (*OrderBook, error) {
	params := url.Values{}
	params.Set("selling_asset_type", assetType(code))
	params.Set("selling_asset_code", code)
	params.Set("selling_asset_issuer", issuer)
	params.Set("buying_asset_type", "native")

	endpoint := fmt.Sprintf("%s/order_book?%s", c.baseURL, params.Encode())

	var book OrderBook
	if err := c.getJSON(ctx, endpoint, &book); err != nil {
		return nil, err
	}

	return &book, nil
}

// getJSON performs a throttled GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Classify(sourceHorizon, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.NewUpstream(sourceHorizon, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Classify(sourceHorizon, err)
	}
	defer resp.Body.Close() // nolint:errcheck // read-only response body

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body) // nolint:errcheck // drain for connection reuse
		return errors.NewNotFound(sourceHorizon, fmt.Errorf("resource not found: %s", endpoint))
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body) // nolint:errcheck // drain for connection reuse
		return errors.NewUpstream(sourceHorizon, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewMalformed(sourceHorizon, err)
	}

	return nil
}

// assetType returns Horizon's asset type discriminator for a code.
// Codes up to 4 characters are alphanum4, longer ones alphanum12.
func assetType(code string) string {
	if len(code) <= 4 {
		return "credit_alphanum4"
	}
	return "credit_alphanum12"
}
