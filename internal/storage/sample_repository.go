package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/nucleo/portfolio-tracker/internal/models"
)

// SampleRepository handles the portfolio value time-series in ClickHouse.
// Samples are append-only and never mutated.
type SampleRepository struct {
	db *ClickHouseDB
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(db *ClickHouseDB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Append writes one time-series sample
func (r *SampleRepository) Append(ctx context.Context, sample *models.PortfolioSample) error {
	query := `
		INSERT INTO portfolio_samples (portfolio_id, created_at, xlm_value, usd_value)
		VALUES (?, ?, ?, ?)
	`

	err := r.db.Conn().Exec(ctx, query,
		sample.PortfolioID,
		sample.CreatedAt,
		sample.XLMValue,
		sample.USDValue,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}

	return nil
}

// Latest returns the most recent sample for a portfolio, selected by an
// explicit timestamp ordering. Returns nil when the portfolio has no
// samples yet.
func (r *SampleRepository) Latest(ctx context.Context, portfolioID string) (*models.PortfolioSample, error) {
	query := `
		SELECT portfolio_id, created_at, xlm_value, usd_value
		FROM portfolio_samples
		WHERE portfolio_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`

	rows, err := r.db.Conn().Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest sample: %w", err)
	}
	defer rows.Close() // nolint:errcheck // read-only rows

	if !rows.Next() {
		return nil, nil
	}

	var sample models.PortfolioSample
	if err := rows.Scan(&sample.PortfolioID, &sample.CreatedAt, &sample.XLMValue, &sample.USDValue); err != nil {
		return nil, fmt.Errorf("failed to scan latest sample: %w", err)
	}

	return &sample, nil
}

// OldestSince returns the oldest sample created at or after the cutoff,
// or nil when none exists. This is the baseline lookup for the trailing
// performance windows.
func (r *SampleRepository) OldestSince(ctx context.Context, portfolioID string, cutoff time.Time) (*models.PortfolioSample, error) {
	query := `
		SELECT portfolio_id, created_at, xlm_value, usd_value
		FROM portfolio_samples
		WHERE portfolio_id = ? AND created_at >= ?
		ORDER BY created_at ASC
		LIMIT 1
	`

	rows, err := r.db.Conn().Query(ctx, query, portfolioID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query baseline sample: %w", err)
	}
	defer rows.Close() // nolint:errcheck // read-only rows

	if !rows.Next() {
		return nil, nil
	}

	var sample models.PortfolioSample
	if err := rows.Scan(&sample.PortfolioID, &sample.CreatedAt, &sample.XLMValue, &sample.USDValue); err != nil {
		return nil, fmt.Errorf("failed to scan baseline sample: %w", err)
	}

	return &sample, nil
}

// Range returns the samples for a portfolio from the given time onward,
// oldest first. Used by the history endpoint for charting.
func (r *SampleRepository) Range(ctx context.Context, portfolioID string, from time.Time) ([]*models.PortfolioSample, error) {
	query := `
		SELECT portfolio_id, created_at, xlm_value, usd_value
		FROM portfolio_samples
		WHERE portfolio_id = ? AND created_at >= ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.Conn().Query(ctx, query, portfolioID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample range: %w", err)
	}
	defer rows.Close() // nolint:errcheck // read-only rows

	var samples []*models.PortfolioSample
	for rows.Next() {
		var sample models.PortfolioSample
		if err := rows.Scan(&sample.PortfolioID, &sample.CreatedAt, &sample.XLMValue, &sample.USDValue); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, &sample)
	}

	return samples, nil
}
