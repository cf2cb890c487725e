// Package service implements the valuation, performance, and ranking pass.
// The four components run strictly in order: price assembly, value
// collection, performance calculation, rank update. Each takes its
// repository and client handles explicitly.
package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/nucleo/portfolio-tracker/internal/logging"
	"github.com/nucleo/portfolio-tracker/internal/metrics"
	"github.com/nucleo/portfolio-tracker/internal/models"
	"github.com/nucleo/portfolio-tracker/internal/stellar"
)

// PriceMap maps an asset identifier to its current price in the native
// unit. By convention the native asset's own entry holds the ticker's
// USD-per-XLM rate instead, and is read as the fiat conversion factor.
type PriceMap map[string]decimal.Decimal

// NativeUSD returns the fiat conversion factor carried on the native entry
func (m PriceMap) NativeUSD() decimal.Decimal {
	return m[models.NativeAssetID]
}

// AssetLister provides the set of tracked assets
type AssetLister interface {
	ListAll(ctx context.Context) ([]*models.Asset, error)
}

// AssetMetadataStore updates cached asset display metadata
type AssetMetadataStore interface {
	UpdateMetadata(ctx context.Context, assetID string, domain *string) error
}

// OrderBookSource fetches the order book for an issued asset against the
// native asset
type OrderBookSource interface {
	OrderBook(ctx context.Context, code, issuer string) (*stellar.OrderBook, error)
}

// TickerSource fetches the external price ticker feed
type TickerSource interface {
	Fetch(ctx context.Context) (*stellar.Ticker, error)
}

// PriceAssembler builds the asset price map for one pass
type PriceAssembler struct {
	assets  AssetLister
	books   OrderBookSource
	ticker  TickerSource
	workers int
	metrics *metrics.PassMetrics
}

// NewPriceAssembler creates a price assembler
func NewPriceAssembler(assets AssetLister, books OrderBookSource, ticker TickerSource, workers int, m *metrics.PassMetrics) *PriceAssembler {
	if workers <= 0 {
		workers = 1
	}
	return &PriceAssembler{
		assets:  assets,
		books:   books,
		ticker:  ticker,
		workers: workers,
		metrics: m,
	}
}

// Assemble returns the price map for every tracked asset. A failed ticker
// or order book call degrades that entry to zero; it never aborts the
// whole assembly. Per-asset order book lookups run in a bounded pool.
func (a *PriceAssembler) Assemble(ctx context.Context) (PriceMap, error) {
	logger := logging.FromContext(ctx)

	assets, err := a.assets.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	prices := make(PriceMap, len(assets))
	var mu sync.Mutex

	// The native entry carries the ticker's fiat rate; every other entry
	// is the best bid in XLM.
	nativeUSD := decimal.Zero
	ticker, err := a.ticker.Fetch(ctx)
	if err != nil {
		logger.WithError(err).Warn("Ticker fetch failed, native fiat rate defaults to zero")
		a.countFailure("ticker")
	} else {
		nativeUSD = ticker.NativeUSDPrice()
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.workers)

	for _, asset := range assets {
		asset := asset
		if asset.IsNative() {
			mu.Lock()
			prices[asset.AssetID] = nativeUSD
			mu.Unlock()
			continue
		}

		group.Go(func() error {
			price := a.bestBid(groupCtx, asset)
			mu.Lock()
			prices[asset.AssetID] = price
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; per-asset failures degrade to zero
	_ = group.Wait()

	if ticker != nil {
		a.refreshMetadata(ctx, ticker)
	}

	return prices, nil
}

// bestBid returns the best order book bid for an issued asset, or zero on
// any failure or an empty book
func (a *PriceAssembler) bestBid(ctx context.Context, asset *models.Asset) decimal.Decimal {
	logger := logging.FromContext(ctx)

	issuer := ""
	if asset.IssuerAddress != nil {
		issuer = *asset.IssuerAddress
	}

	book, err := a.books.OrderBook(ctx, asset.Code, issuer)
	if err != nil {
		logger.WithError(err).WithField("asset", asset.AssetID).Warn("Order book fetch failed, price defaults to zero")
		a.countFailure("horizon")
		return decimal.Zero
	}

	return book.BestBid()
}

// refreshMetadata updates cached display metadata for assets present in
// the ticker feed. Failures are logged and skipped.
func (a *PriceAssembler) refreshMetadata(ctx context.Context, ticker *stellar.Ticker) {
	store, ok := a.assets.(AssetMetadataStore)
	if !ok {
		return
	}

	logger := logging.FromContext(ctx)
	for _, entry := range ticker.Assets {
		if entry.ID == models.NativeAssetID || entry.Domain == "" {
			continue
		}
		domain := entry.Domain
		if err := store.UpdateMetadata(ctx, entry.ID, &domain); err != nil {
			logger.WithError(err).WithField("asset", entry.ID).Warn("Asset metadata refresh failed")
		}
	}
}

func (a *PriceAssembler) countFailure(source string) {
	if a.metrics != nil {
		a.metrics.ExternalFailures.WithLabelValues(source).Inc()
	}
}
