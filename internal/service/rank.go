package service

import (
	"context"

	"github.com/nucleo/portfolio-tracker/internal/storage"
)

// RankStore provides the rank mutation surface of the portfolio store
type RankStore interface {
	ClearRanks(ctx context.Context) error
	ListRankCandidates(ctx context.Context, minXLMValue float64, limit int) ([]*storage.RankCandidate, error)
	SetRanks(ctx context.Context, ranks map[string]int) error
}

// RankUpdater recomputes the leaderboard with a full reset: every existing
// rank is cleared, then dense ranks 1..size go to the top portfolios by
// 1-day performance among those above the minimum investment threshold.
type RankUpdater struct {
	store      RankStore
	minBalance float64
	size       int
}

// NewRankUpdater creates a rank updater. minBalance is the XLM value a
// portfolio must exceed to be eligible; size is the number of leaderboard
// slots.
func NewRankUpdater(store RankStore, minBalance float64, size int) *RankUpdater {
	return &RankUpdater{
		store:      store,
		minBalance: minBalance,
		size:       size,
	}
}

// Update rebuilds the leaderboard and returns the number of portfolios
// ranked
func (u *RankUpdater) Update(ctx context.Context) (int, error) {
	if err := u.store.ClearRanks(ctx); err != nil {
		return 0, err
	}

	candidates, err := u.store.ListRankCandidates(ctx, u.minBalance, u.size)
	if err != nil {
		return 0, err
	}

	ranks := make(map[string]int, len(candidates))
	for i, candidate := range candidates {
		ranks[candidate.PortfolioID] = i + 1
	}

	if err := u.store.SetRanks(ctx, ranks); err != nil {
		return 0, err
	}

	return len(ranks), nil
}
