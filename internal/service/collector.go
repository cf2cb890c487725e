package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/nucleo/portfolio-tracker/internal/errors"
	"github.com/nucleo/portfolio-tracker/internal/logging"
	"github.com/nucleo/portfolio-tracker/internal/metrics"
	"github.com/nucleo/portfolio-tracker/internal/models"
	"github.com/nucleo/portfolio-tracker/internal/stellar"
)

// PortfolioLister provides the set of portfolios
type PortfolioLister interface {
	ListAll(ctx context.Context) ([]*models.Portfolio, error)
}

// PortfolioValueStore refreshes a portfolio's cached latest values
type PortfolioValueStore interface {
	UpdateCachedValues(ctx context.Context, id string, xlmValue, usdValue float64) error
}

// AccountStore provides linked accounts and removes stale ones
type AccountStore interface {
	ListByProfile(ctx context.Context, profileID string) ([]*models.StellarAccount, error)
	DeleteByPublicKey(ctx context.Context, publicKey string) error
}

// AssetRegistrar registers assets observed in account balances
type AssetRegistrar interface {
	Register(ctx context.Context, code string, issuer *string) error
}

// LedgerSource fetches live account state from the ledger network
type LedgerSource interface {
	Account(ctx context.Context, address string) (*stellar.Account, error)
}

// SampleStore reads and appends portfolio value time-series samples
type SampleStore interface {
	Append(ctx context.Context, sample *models.PortfolioSample) error
	Latest(ctx context.Context, portfolioID string) (*models.PortfolioSample, error)
	OldestSince(ctx context.Context, portfolioID string, cutoff time.Time) (*models.PortfolioSample, error)
}

// CollectStats summarizes one collection pass
type CollectStats struct {
	PortfoliosSampled int
	PortfoliosSkipped int
	AccountsRemoved   int
}

// Collector computes and persists one time-series sample per portfolio
type Collector struct {
	portfolios PortfolioLister
	values     PortfolioValueStore
	accounts   AccountStore
	assets     AssetRegistrar
	ledger     LedgerSource
	samples    SampleStore
	interval   time.Duration
	workers    int
	metrics    *metrics.PassMetrics
	now        func() time.Time
}

// NewCollector creates a portfolio value collector
func NewCollector(
	portfolios PortfolioLister,
	values PortfolioValueStore,
	accounts AccountStore,
	assets AssetRegistrar,
	ledger LedgerSource,
	samples SampleStore,
	interval time.Duration,
	workers int,
	m *metrics.PassMetrics,
) *Collector {
	if workers <= 0 {
		workers = 1
	}
	return &Collector{
		portfolios: portfolios,
		values:     values,
		accounts:   accounts,
		assets:     assets,
		ledger:     ledger,
		samples:    samples,
		interval:   interval,
		workers:    workers,
		metrics:    m,
		now:        time.Now,
	}
}

// Collect values every portfolio with at least one linked account and
// appends a sample, subject to the minimum sampling interval. A ledger
// failure for one portfolio skips that portfolio only; the next scheduled
// run retries it.
func (c *Collector) Collect(ctx context.Context, prices PriceMap) (*CollectStats, error) {
	portfolios, err := c.portfolios.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &CollectStats{}
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers)

	for _, portfolio := range portfolios {
		portfolio := portfolio
		group.Go(func() error {
			sampled, removed, err := c.collectOne(groupCtx, portfolio, prices)

			mu.Lock()
			defer mu.Unlock()
			stats.AccountsRemoved += removed
			switch {
			case err != nil:
				stats.PortfoliosSkipped++
				logging.FromContext(groupCtx).WithError(err).
					WithField("portfolio", portfolio.ID).
					Warn("Portfolio skipped for this pass")
			case sampled:
				stats.PortfoliosSampled++
			}
			return nil
		})
	}

	// Per-portfolio failures are counted, not propagated
	_ = group.Wait()

	return stats, nil
}

// collectOne values a single portfolio. Returns whether a sample was
// written and how many stale accounts were removed.
func (c *Collector) collectOne(ctx context.Context, portfolio *models.Portfolio, prices PriceMap) (sampled bool, removed int, err error) {
	logger := logging.FromContext(ctx)

	accounts, err := c.accounts.ListByProfile(ctx, portfolio.ProfileID)
	if err != nil {
		return false, 0, err
	}

	totalXLM := decimal.Zero
	live := 0

	for _, account := range accounts {
		ledgerAccount, err := c.ledger.Account(ctx, account.PublicKey)
		if errors.IsNotFound(err) {
			// The network no longer knows this address; drop the stale link
			if delErr := c.accounts.DeleteByPublicKey(ctx, account.PublicKey); delErr != nil {
				logger.WithError(delErr).WithField("account", account.PublicKey).
					Warn("Failed to remove stale account")
				continue
			}
			removed++
			if c.metrics != nil {
				c.metrics.AccountsRemoved.Inc()
			}
			continue
		}
		if err != nil {
			return false, removed, err
		}

		totalXLM = totalXLM.Add(c.accountValue(ctx, ledgerAccount, prices))
		live++
	}

	// A portfolio with no live accounts produces no sample
	if live == 0 {
		return false, removed, nil
	}

	now := c.now().UTC()

	latest, err := c.samples.Latest(ctx, portfolio.ID)
	if err != nil {
		return false, removed, err
	}
	if latest != nil && now.Sub(latest.CreatedAt) < c.interval {
		// Retried inside the sampling interval: idempotent no-op
		return false, removed, nil
	}

	xlmValue := totalXLM.InexactFloat64()
	usdValue := totalXLM.Mul(prices.NativeUSD()).InexactFloat64()

	sample := &models.PortfolioSample{
		PortfolioID: portfolio.ID,
		XLMValue:    xlmValue,
		USDValue:    usdValue,
		CreatedAt:   now,
	}
	if err := c.samples.Append(ctx, sample); err != nil {
		return false, removed, err
	}

	if err := c.values.UpdateCachedValues(ctx, portfolio.ID, xlmValue, usdValue); err != nil {
		return false, removed, err
	}

	return true, removed, nil
}

// accountValue sums one account's balances in XLM. Native balances
// contribute their amount directly; issued assets contribute amount times
// the assembled best bid, zero when unpriced.
func (c *Collector) accountValue(ctx context.Context, account *stellar.Account, prices PriceMap) decimal.Decimal {
	logger := logging.FromContext(ctx)
	total := decimal.Zero

	for _, balance := range account.Balances {
		if balance.IsNative() {
			total = total.Add(balance.Amount)
			continue
		}

		issuer := balance.AssetIssuer
		if err := c.assets.Register(ctx, balance.AssetCode, &issuer); err != nil {
			logger.WithError(err).WithField("asset", balance.AssetID()).
				Warn("Failed to register observed asset")
		}

		price, ok := prices[balance.AssetID()]
		if !ok {
			continue
		}
		total = total.Add(balance.Amount.Mul(price))
	}

	return total
}
