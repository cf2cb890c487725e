package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nucleo/portfolio-tracker/internal/models"
)

// ErrPortfolioNotFound is returned when no portfolio matches the given ID
var ErrPortfolioNotFound = errors.New("portfolio not found")

// RankCandidate is a portfolio eligible for a leaderboard slot
type RankCandidate struct {
	PortfolioID   string
	Performance1D float64
}

// LeaderboardEntry is one ranked row of the leaderboard, joined with its
// owner's display fields
type LeaderboardEntry struct {
	Rank          int      `json:"rank"`
	PortfolioID   string   `json:"portfolioId"`
	Username      string   `json:"username"`
	FullName      *string  `json:"fullName,omitempty"`
	USDValue      float64  `json:"usdValue"`
	Performance1D *float64 `json:"performance1d"`
}

// PortfolioRepository handles portfolio persistence
type PortfolioRepository struct {
	db *PostgresDB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *PostgresDB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// Create creates a new portfolio for a profile
func (r *PortfolioRepository) Create(ctx context.Context, portfolio *models.Portfolio) error {
	if portfolio.ID == "" {
		portfolio.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	portfolio.CreatedAt = now
	portfolio.UpdatedAt = now

	query := `
		INSERT INTO portfolios (id, profile_id, xlm_value, usd_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		portfolio.ID,
		portfolio.ProfileID,
		portfolio.XLMValue,
		portfolio.USDValue,
		portfolio.CreatedAt,
		portfolio.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	return nil
}

// portfolioColumns is the scan list shared by the portfolio read queries
const portfolioColumns = `
	id, profile_id, xlm_value, usd_value,
	performance_1d, performance_1w, performance_1m,
	performance_3m, performance_6m, performance_1y,
	rank, created_at, updated_at
`

// scanPortfolio scans one portfolio row
func scanPortfolio(row pgx.Row) (*models.Portfolio, error) {
	var p models.Portfolio
	err := row.Scan(
		&p.ID,
		&p.ProfileID,
		&p.XLMValue,
		&p.USDValue,
		&p.Performance.OneDay,
		&p.Performance.OneWeek,
		&p.Performance.OneMonth,
		&p.Performance.ThreeMon,
		&p.Performance.SixMonths,
		&p.Performance.OneYear,
		&p.Rank,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a portfolio by ID
func (r *PortfolioRepository) GetByID(ctx context.Context, id string) (*models.Portfolio, error) {
	query := fmt.Sprintf(`SELECT %s FROM portfolios WHERE id = $1`, portfolioColumns)

	portfolio, err := scanPortfolio(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPortfolioNotFound, id)
		}
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	return portfolio, nil
}

// ListAll returns every portfolio
func (r *PortfolioRepository) ListAll(ctx context.Context) ([]*models.Portfolio, error) {
	query := fmt.Sprintf(`SELECT %s FROM portfolios ORDER BY created_at`, portfolioColumns)

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []*models.Portfolio
	for rows.Next() {
		portfolio, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, portfolio)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}

// UpdateCachedValues refreshes the latest-value cache after a sample write
func (r *PortfolioRepository) UpdateCachedValues(ctx context.Context, id string, xlmValue, usdValue float64) error {
	query := `
		UPDATE portfolios
		SET xlm_value = $2, usd_value = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query, id, xlmValue, usdValue, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update portfolio values: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("portfolio not found: %s", id)
	}

	return nil
}

// UpdatePerformance persists all six performance fields plus the cached
// latest values in one update
func (r *PortfolioRepository) UpdatePerformance(ctx context.Context, id string, xlmValue, usdValue float64, perf *models.Performance) error {
	query := `
		UPDATE portfolios
		SET xlm_value = $2, usd_value = $3,
			performance_1d = $4, performance_1w = $5, performance_1m = $6,
			performance_3m = $7, performance_6m = $8, performance_1y = $9,
			updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		id,
		xlmValue,
		usdValue,
		perf.OneDay,
		perf.OneWeek,
		perf.OneMonth,
		perf.ThreeMon,
		perf.SixMonths,
		perf.OneYear,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio performance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("portfolio not found: %s", id)
	}

	return nil
}

// ClearRanks unsets the rank on every currently ranked portfolio
func (r *PortfolioRepository) ClearRanks(ctx context.Context) error {
	query := `UPDATE portfolios SET rank = NULL, updated_at = $1 WHERE rank IS NOT NULL`

	if _, err := r.db.Pool().Exec(ctx, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to clear ranks: %w", err)
	}

	return nil
}

// ListRankCandidates returns portfolios eligible for ranking: XLM value
// above the minimum investment threshold and a computed 1-day performance.
// Ordered by 1-day performance descending, portfolio ID ascending on ties.
func (r *PortfolioRepository) ListRankCandidates(ctx context.Context, minXLMValue float64, limit int) ([]*RankCandidate, error) {
	query := `
		SELECT id, performance_1d
		FROM portfolios
		WHERE xlm_value > $1 AND performance_1d IS NOT NULL
		ORDER BY performance_1d DESC, id ASC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, minXLMValue, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rank candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*RankCandidate
	for rows.Next() {
		var c RankCandidate
		if err := rows.Scan(&c.PortfolioID, &c.Performance1D); err != nil {
			return nil, fmt.Errorf("failed to scan rank candidate: %w", err)
		}
		candidates = append(candidates, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rank candidates: %w", err)
	}

	return candidates, nil
}

// SetRanks assigns rank values to the given portfolios in one batch
func (r *PortfolioRepository) SetRanks(ctx context.Context, ranks map[string]int) error {
	if len(ranks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for id, rank := range ranks {
		batch.Queue(`UPDATE portfolios SET rank = $2, updated_at = $3 WHERE id = $1`, id, rank, now)
	}

	results := r.db.Pool().SendBatch(ctx, batch)
	defer results.Close() // nolint:errcheck // batch cleanup

	for range ranks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to set rank: %w", err)
		}
	}

	return nil
}

// Leaderboard returns all ranked portfolios in rank order, joined with
// their owners' display fields
func (r *PortfolioRepository) Leaderboard(ctx context.Context) ([]*LeaderboardEntry, error) {
	query := `
		SELECT p.rank, p.id, pr.username, pr.full_name, p.usd_value, p.performance_1d
		FROM portfolios p
		JOIN profiles pr ON pr.id = p.profile_id
		WHERE p.rank IS NOT NULL
		ORDER BY p.rank
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.PortfolioID, &e.Username, &e.FullName, &e.USDValue, &e.Performance1D); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return entries, nil
}

// EnsurePortfolios creates a portfolio for every profile missing one and
// returns the number created. Profiles are provisioned by the external
// CRUD layer; this heals any that predate portfolio provisioning.
func (r *PortfolioRepository) EnsurePortfolios(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO portfolios (id, profile_id, xlm_value, usd_value, created_at, updated_at)
		SELECT gen_random_uuid(), pr.id, 0, 0, $1, $1
		FROM profiles pr
		WHERE NOT EXISTS (
			SELECT 1 FROM portfolios p WHERE p.profile_id = pr.id
		)
	`

	result, err := r.db.Pool().Exec(ctx, query, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to ensure portfolios: %w", err)
	}

	return result.RowsAffected(), nil
}
