package models

import (
	"time"
)

// UnavailableValue marks a recorded value that could not be computed at
// collection time. Samples carrying it never serve as a performance
// baseline. Real totals are always >= 0.
const UnavailableValue = -1.0

// PortfolioSample is one point of a portfolio's value time-series.
// Immutable once written; a new sample is appended only when at least one
// sampling interval has elapsed since the newest sample for the portfolio.
type PortfolioSample struct {
	PortfolioID string    `json:"portfolioId" db:"portfolio_id"`
	XLMValue    float64   `json:"xlmValue" db:"xlm_value"`
	USDValue    float64   `json:"usdValue" db:"usd_value"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Usable reports whether the sample can serve as a performance baseline
// or endpoint.
func (s *PortfolioSample) Usable() bool {
	return s.XLMValue >= 0 && s.USDValue >= 0
}
