package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceMapRoundTrip(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	prices := map[string]float64{
		"XLM-native": 0.12,
		"USDC-GA5ZSEJYB37JRC5AVCIA5MOP4RHTM335X2KGX3IHOJAPP5RE34K4KZVN": 2.5,
	}

	require.NoError(t, cache.StorePriceMap(ctx, prices, time.Minute))

	got, err := cache.GetPriceMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, prices, got)
}

func TestPriceMapMissingReturnsNil(t *testing.T) {
	cache, _ := setupTestCache(t)

	got, err := cache.GetPriceMap(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPriceMapExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.StorePriceMap(ctx, map[string]float64{"XLM-native": 0.1}, time.Minute))

	mr.FastForward(2 * time.Minute)

	got, err := cache.GetPriceMap(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
