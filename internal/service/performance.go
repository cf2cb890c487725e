package service

import (
	"context"
	"time"

	"github.com/nucleo/portfolio-tracker/internal/logging"
	"github.com/nucleo/portfolio-tracker/internal/models"
)

// PerformanceStore persists a portfolio's recomputed performance fields
type PerformanceStore interface {
	UpdatePerformance(ctx context.Context, id string, xlmValue, usdValue float64, perf *models.Performance) error
}

// Calculator recomputes the six trailing returns for every portfolio.
// Running it twice with no new samples yields identical results.
type Calculator struct {
	portfolios PortfolioLister
	samples    SampleStore
	store      PerformanceStore
	interval   time.Duration
	now        func() time.Time
}

// NewCalculator creates a performance calculator. The interval is the
// sampling interval; baselines may sit up to one interval outside the
// nominal window boundary to tolerate scheduling jitter.
func NewCalculator(portfolios PortfolioLister, samples SampleStore, store PerformanceStore, interval time.Duration) *Calculator {
	return &Calculator{
		portfolios: portfolios,
		samples:    samples,
		store:      store,
		interval:   interval,
		now:        time.Now,
	}
}

// Recalculate updates the performance fields of every portfolio and
// returns the number of portfolios updated. A failure on one portfolio
// skips it; the next pass recomputes from the same history.
func (c *Calculator) Recalculate(ctx context.Context) (int, error) {
	logger := logging.FromContext(ctx)

	portfolios, err := c.portfolios.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, portfolio := range portfolios {
		if err := c.recalculateOne(ctx, portfolio); err != nil {
			logger.WithError(err).WithField("portfolio", portfolio.ID).
				Warn("Performance recalculation skipped")
			continue
		}
		updated++
	}

	return updated, nil
}

// recalculateOne recomputes and persists one portfolio's six windows
func (c *Calculator) recalculateOne(ctx context.Context, portfolio *models.Portfolio) error {
	now := c.now().UTC()

	latest, err := c.samples.Latest(ctx, portfolio.ID)
	if err != nil {
		return err
	}

	// Cached values refresh only from a usable latest sample
	xlmValue := portfolio.XLMValue
	usdValue := portfolio.USDValue
	if latest != nil && latest.Usable() {
		xlmValue = latest.XLMValue
		usdValue = latest.USDValue
	}

	perf := models.Performance{}
	if latest != nil && latest.Usable() {
		for _, window := range models.Windows {
			cutoff := now.Add(-window.Length() - c.interval)
			value, err := c.windowReturn(ctx, portfolio.ID, latest, cutoff)
			if err != nil {
				return err
			}
			perf.SetForWindow(window, value)
		}
	}

	return c.store.UpdatePerformance(ctx, portfolio.ID, xlmValue, usdValue, &perf)
}

// windowReturn computes the fractional return of one window, or nil when
// no valid baseline exists. The baseline is the oldest sample on or after
// the cutoff that predates the latest sample; a zero or unavailable
// baseline yields nil, never a division by zero.
func (c *Calculator) windowReturn(ctx context.Context, portfolioID string, latest *models.PortfolioSample, cutoff time.Time) (*float64, error) {
	baseline, err := c.samples.OldestSince(ctx, portfolioID, cutoff)
	if err != nil {
		return nil, err
	}

	if baseline == nil || !baseline.Usable() {
		return nil, nil
	}
	if !baseline.CreatedAt.Before(latest.CreatedAt) {
		// The only in-window sample is the latest itself: no baseline
		return nil, nil
	}
	if baseline.USDValue == 0 {
		return nil, nil
	}

	value := (latest.USDValue - baseline.USDValue) / baseline.USDValue
	return &value, nil
}
