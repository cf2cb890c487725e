// Package metrics exposes Prometheus instrumentation for the valuation
// pass.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PassMetrics records the outcome of valuation/performance/ranking passes
type PassMetrics struct {
	PassesTotal       *prometheus.CounterVec
	PassDuration      prometheus.Histogram
	AssetsPriced      prometheus.Gauge
	PortfoliosSampled prometheus.Gauge
	PortfoliosRanked  prometheus.Gauge
	AccountsRemoved   prometheus.Counter
	ExternalFailures  *prometheus.CounterVec
}

// NewPassMetrics creates and registers the pass metrics on the given
// registerer
func NewPassMetrics(reg prometheus.Registerer) *PassMetrics {
	factory := promauto.With(reg)

	return &PassMetrics{
		PassesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_passes_total",
			Help: "Completed valuation passes by status.",
		}, []string{"status"}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "portfolio_pass_duration_seconds",
			Help:    "Wall time of one full valuation pass.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		AssetsPriced: factory.NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_assets_priced",
			Help: "Assets priced during the most recent pass.",
		}),
		PortfoliosSampled: factory.NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_portfolios_sampled",
			Help: "Portfolios that received a new sample in the most recent pass.",
		}),
		PortfoliosRanked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "portfolio_portfolios_ranked",
			Help: "Portfolios holding a leaderboard rank after the most recent pass.",
		}),
		AccountsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_stale_accounts_removed_total",
			Help: "Linked accounts deleted after Horizon reported them missing.",
		}),
		ExternalFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_external_failures_total",
			Help: "Degraded external calls by source.",
		}, []string{"source"}),
	}
}
