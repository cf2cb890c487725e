package models

import (
	"time"
)

// PerformanceWindow identifies one of the trailing look-back windows.
type PerformanceWindow string

const (
	Window1D PerformanceWindow = "1d"
	Window1W PerformanceWindow = "1w"
	Window1M PerformanceWindow = "1m"
	Window3M PerformanceWindow = "3m"
	Window6M PerformanceWindow = "6m"
	Window1Y PerformanceWindow = "1y"
)

// Windows lists all trailing windows in ascending length order.
var Windows = []PerformanceWindow{Window1D, Window1W, Window1M, Window3M, Window6M, Window1Y}

// Length returns the look-back duration of the window.
func (w PerformanceWindow) Length() time.Duration {
	switch w {
	case Window1D:
		return 24 * time.Hour
	case Window1W:
		return 7 * 24 * time.Hour
	case Window1M:
		return 30 * 24 * time.Hour
	case Window3M:
		return 90 * 24 * time.Hour
	case Window6M:
		return 180 * 24 * time.Hour
	case Window1Y:
		return 365 * 24 * time.Hour
	}
	return 0
}

// Performance holds the six trailing returns of a portfolio. Each value is
// a signed fraction; nil means no valid baseline existed for the window.
type Performance struct {
	OneDay    *float64 `json:"performance1d" db:"performance_1d"`
	OneWeek   *float64 `json:"performance1w" db:"performance_1w"`
	OneMonth  *float64 `json:"performance1m" db:"performance_1m"`
	ThreeMon  *float64 `json:"performance3m" db:"performance_3m"`
	SixMonths *float64 `json:"performance6m" db:"performance_6m"`
	OneYear   *float64 `json:"performance1y" db:"performance_1y"`
}

// ForWindow returns the value stored for the given window.
func (p *Performance) ForWindow(w PerformanceWindow) *float64 {
	switch w {
	case Window1D:
		return p.OneDay
	case Window1W:
		return p.OneWeek
	case Window1M:
		return p.OneMonth
	case Window3M:
		return p.ThreeMon
	case Window6M:
		return p.SixMonths
	case Window1Y:
		return p.OneYear
	}
	return nil
}

// SetForWindow stores a value for the given window.
func (p *Performance) SetForWindow(w PerformanceWindow, v *float64) {
	switch w {
	case Window1D:
		p.OneDay = v
	case Window1W:
		p.OneWeek = v
	case Window1M:
		p.OneMonth = v
	case Window3M:
		p.ThreeMon = v
	case Window6M:
		p.SixMonths = v
	case Window1Y:
		p.OneYear = v
	}
}

// Portfolio aggregates the market value of all Stellar accounts linked to
// one profile. Created alongside its profile, never deleted while the
// profile exists. XLMValue/USDValue cache the most recent totals for fast
// display; Rank is 1..N on the leaderboard or nil when unranked.
type Portfolio struct {
	ID          string      `json:"id" db:"id"`
	ProfileID   string      `json:"profileId" db:"profile_id"`
	XLMValue    float64     `json:"xlmValue" db:"xlm_value"`
	USDValue    float64     `json:"usdValue" db:"usd_value"`
	Performance Performance `json:"performance"`
	Rank        *int        `json:"rank,omitempty" db:"rank"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
}
