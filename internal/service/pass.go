package service

import (
	"context"
	"time"

	"github.com/nucleo/portfolio-tracker/internal/logging"
	"github.com/nucleo/portfolio-tracker/internal/metrics"
)

// RunLock serializes passes; no two may run concurrently
type RunLock interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// PriceCache stores the assembled price map for the read API
type PriceCache interface {
	StorePriceMap(ctx context.Context, prices map[string]float64, ttl time.Duration) error
}

// Summary reports what one pass accomplished
type Summary struct {
	AssetsPriced      int           `json:"assetsPriced"`
	PortfoliosSampled int           `json:"portfoliosSampled"`
	PortfoliosSkipped int           `json:"portfoliosSkipped"`
	AccountsRemoved   int           `json:"accountsRemoved"`
	PortfoliosRanked  int           `json:"portfoliosRanked"`
	Duration          time.Duration `json:"duration"`
}

// Pass runs the four components of one scheduled invocation strictly in
// order under the exclusive run lock.
type Pass struct {
	assembler  *PriceAssembler
	collector  *Collector
	calculator *Calculator
	ranker     *RankUpdater
	lock       RunLock
	cache      PriceCache
	cacheTTL   time.Duration
	metrics    *metrics.PassMetrics
}

// NewPass wires the pass orchestrator. The cache is optional; a nil cache
// skips price map publication.
func NewPass(
	assembler *PriceAssembler,
	collector *Collector,
	calculator *Calculator,
	ranker *RankUpdater,
	lock RunLock,
	cache PriceCache,
	cacheTTL time.Duration,
	m *metrics.PassMetrics,
) *Pass {
	return &Pass{
		assembler:  assembler,
		collector:  collector,
		calculator: calculator,
		ranker:     ranker,
		lock:       lock,
		cache:      cache,
		cacheTTL:   cacheTTL,
		metrics:    m,
	}
}

// Run executes one valuation/performance/ranking pass and returns its
// summary. Partial completion is safe: every step is idempotent per
// portfolio and the next scheduled run catches up.
func (p *Pass) Run(ctx context.Context) (*Summary, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	if err := p.lock.Acquire(ctx); err != nil {
		p.countPass("locked")
		return nil, err
	}
	defer func() {
		if err := p.lock.Release(ctx); err != nil {
			logger.WithError(err).Warn("Failed to release run lock")
		}
	}()

	logger.Info("Valuation pass starting")

	prices, err := p.assembler.Assemble(ctx)
	if err != nil {
		p.countPass("failed")
		return nil, err
	}
	p.publishPrices(ctx, prices)

	collectStats, err := p.collector.Collect(ctx, prices)
	if err != nil {
		p.countPass("failed")
		return nil, err
	}

	recalculated, err := p.calculator.Recalculate(ctx)
	if err != nil {
		p.countPass("failed")
		return nil, err
	}

	ranked, err := p.ranker.Update(ctx)
	if err != nil {
		p.countPass("failed")
		return nil, err
	}

	summary := &Summary{
		AssetsPriced:      len(prices),
		PortfoliosSampled: collectStats.PortfoliosSampled,
		PortfoliosSkipped: collectStats.PortfoliosSkipped,
		AccountsRemoved:   collectStats.AccountsRemoved,
		PortfoliosRanked:  ranked,
		Duration:          time.Since(start),
	}

	p.record(summary)

	logger.WithFields(map[string]interface{}{
		"assetsPriced":      summary.AssetsPriced,
		"portfoliosSampled": summary.PortfoliosSampled,
		"portfoliosSkipped": summary.PortfoliosSkipped,
		"recalculated":      recalculated,
		"portfoliosRanked":  summary.PortfoliosRanked,
		"duration":          summary.Duration.String(),
	}).Info("Valuation pass complete")

	return summary, nil
}

// publishPrices caches the price map for the read API; a cache failure is
// logged but does not affect the pass
func (p *Pass) publishPrices(ctx context.Context, prices PriceMap) {
	if p.cache == nil {
		return
	}

	flat := make(map[string]float64, len(prices))
	for id, price := range prices {
		flat[id] = price.InexactFloat64()
	}

	if err := p.cache.StorePriceMap(ctx, flat, p.cacheTTL); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Failed to cache price map")
	}
}

func (p *Pass) countPass(status string) {
	if p.metrics != nil {
		p.metrics.PassesTotal.WithLabelValues(status).Inc()
	}
}

func (p *Pass) record(summary *Summary) {
	if p.metrics == nil {
		return
	}
	p.metrics.PassesTotal.WithLabelValues("ok").Inc()
	p.metrics.PassDuration.Observe(summary.Duration.Seconds())
	p.metrics.AssetsPriced.Set(float64(summary.AssetsPriced))
	p.metrics.PortfoliosSampled.Set(float64(summary.PortfoliosSampled))
	p.metrics.PortfoliosRanked.Set(float64(summary.PortfoliosRanked))
}
