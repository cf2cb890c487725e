package stellar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleo/portfolio-tracker/internal/config"
	"github.com/nucleo/portfolio-tracker/internal/errors"
)

func testTickerClient(serverURL string) *TickerClient {
	return NewTickerClient(&config.StellarConfig{
		TickerURL:      serverURL,
		RequestTimeout: 2 * time.Second,
	})
}

func TestTickerFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"assets": [
				{"id": "XLM-native", "code": "XLM", "price_USD": 0.12},
				{"id": "USDC-GA5Z", "code": "USDC", "issuer": "GA5Z", "domain": "centre.io", "price_XLM": 8.3, "activityScore": 95}
			]
		}`))
	}))
	defer server.Close()

	ticker, err := testTickerClient(server.URL).Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, ticker.Assets, 2)
	assert.True(t, ticker.NativeUSDPrice().Equal(decimal.RequireFromString("0.12")))
	assert.Equal(t, "centre.io", ticker.Assets[1].Domain)
}

func TestTickerNativeMissingIsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"assets": [{"id": "USDC-GA5Z", "code": "USDC"}]}`))
	}))
	defer server.Close()

	ticker, err := testTickerClient(server.URL).Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, ticker.NativeUSDPrice().IsZero())
}

func TestTickerUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testTickerClient(server.URL).Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.KindUpstream, errors.KindOf(err))
}

func TestTickerMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>error</html>"))
	}))
	defer server.Close()

	_, err := testTickerClient(server.URL).Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.KindMalformed, errors.KindOf(err))
}
