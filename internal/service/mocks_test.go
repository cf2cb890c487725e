package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nucleo/portfolio-tracker/internal/models"
	"github.com/nucleo/portfolio-tracker/internal/stellar"
	"github.com/nucleo/portfolio-tracker/internal/storage"
)

// Mock repositories and clients shared by the service tests

type mockPortfolioStore struct {
	mu         sync.Mutex
	portfolios []*models.Portfolio
	listErr    error

	cachedValues map[string][2]float64
	performances map[string]*models.Performance
}

func newMockPortfolioStore(portfolios ...*models.Portfolio) *mockPortfolioStore {
	return &mockPortfolioStore{
		portfolios:   portfolios,
		cachedValues: make(map[string][2]float64),
		performances: make(map[string]*models.Performance),
	}
}

func (m *mockPortfolioStore) ListAll(ctx context.Context) ([]*models.Portfolio, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.portfolios, nil
}

func (m *mockPortfolioStore) UpdateCachedValues(ctx context.Context, id string, xlmValue, usdValue float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cachedValues[id] = [2]float64{xlmValue, usdValue}
	return nil
}

func (m *mockPortfolioStore) UpdatePerformance(ctx context.Context, id string, xlmValue, usdValue float64, perf *models.Performance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cachedValues[id] = [2]float64{xlmValue, usdValue}
	m.performances[id] = perf
	return nil
}

type memorySampleStore struct {
	mu      sync.Mutex
	samples map[string][]*models.PortfolioSample
}

func newMemorySampleStore() *memorySampleStore {
	return &memorySampleStore{samples: make(map[string][]*models.PortfolioSample)}
}

func (m *memorySampleStore) Append(ctx context.Context, sample *models.PortfolioSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	series := append(m.samples[sample.PortfolioID], sample)
	sort.Slice(series, func(i, j int) bool {
		return series[i].CreatedAt.Before(series[j].CreatedAt)
	})
	m.samples[sample.PortfolioID] = series
	return nil
}

func (m *memorySampleStore) Latest(ctx context.Context, portfolioID string) (*models.PortfolioSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	series := m.samples[portfolioID]
	if len(series) == 0 {
		return nil, nil
	}
	return series[len(series)-1], nil
}

func (m *memorySampleStore) OldestSince(ctx context.Context, portfolioID string, cutoff time.Time) (*models.PortfolioSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sample := range m.samples[portfolioID] {
		if !sample.CreatedAt.Before(cutoff) {
			return sample, nil
		}
	}
	return nil, nil
}

func (m *memorySampleStore) count(portfolioID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples[portfolioID])
}

type mockAccountStore struct {
	mu       sync.Mutex
	accounts map[string][]*models.StellarAccount
	removed  []string
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: make(map[string][]*models.StellarAccount)}
}

func (m *mockAccountStore) add(profileID, publicKey string) {
	m.accounts[profileID] = append(m.accounts[profileID], &models.StellarAccount{
		ID:        publicKey,
		PublicKey: publicKey,
		ProfileID: profileID,
	})
}

func (m *mockAccountStore) ListByProfile(ctx context.Context, profileID string) ([]*models.StellarAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[profileID], nil
}

func (m *mockAccountStore) DeleteByPublicKey(ctx context.Context, publicKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, publicKey)
	for profileID, accounts := range m.accounts {
		kept := accounts[:0]
		for _, account := range accounts {
			if account.PublicKey != publicKey {
				kept = append(kept, account)
			}
		}
		m.accounts[profileID] = kept
	}
	return nil
}

type mockAssetRegistrar struct {
	mu         sync.Mutex
	registered []string
}

func (m *mockAssetRegistrar) Register(ctx context.Context, code string, issuer *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	issuerAddr := ""
	if issuer != nil {
		issuerAddr = *issuer
	}
	m.registered = append(m.registered, models.MakeAssetID(code, issuerAddr))
	return nil
}

type mockLedger struct {
	accounts map[string]*stellar.Account
	errs     map[string]error
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		accounts: make(map[string]*stellar.Account),
		errs:     make(map[string]error),
	}
}

func (m *mockLedger) Account(ctx context.Context, address string) (*stellar.Account, error) {
	if err, ok := m.errs[address]; ok {
		return nil, err
	}
	if account, ok := m.accounts[address]; ok {
		return account, nil
	}
	return &stellar.Account{AccountID: address}, nil
}

type mockAssetLister struct {
	assets   []*models.Asset
	listErr  error
	mu       sync.Mutex
	metadata map[string]string
}

func (m *mockAssetLister) ListAll(ctx context.Context) ([]*models.Asset, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.assets, nil
}

func (m *mockAssetLister) UpdateMetadata(ctx context.Context, assetID string, domain *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.metadata == nil {
		m.metadata = make(map[string]string)
	}
	if domain != nil {
		m.metadata[assetID] = *domain
	}
	return nil
}

type mockOrderBooks struct {
	books map[string]*stellar.OrderBook
	errs  map[string]error
}

func (m *mockOrderBooks) OrderBook(ctx context.Context, code, issuer string) (*stellar.OrderBook, error) {
	id := models.MakeAssetID(code, issuer)
	if err, ok := m.errs[id]; ok {
		return nil, err
	}
	if book, ok := m.books[id]; ok {
		return book, nil
	}
	return &stellar.OrderBook{}, nil
}

type mockTickerSource struct {
	ticker *stellar.Ticker
	err    error
}

func (m *mockTickerSource) Fetch(ctx context.Context) (*stellar.Ticker, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ticker, nil
}

type mockRankStore struct {
	candidates []*storage.RankCandidate
	clearCalls int
	setCalls   int
	ranks      map[string]int
}

func (m *mockRankStore) ClearRanks(ctx context.Context) error {
	m.clearCalls++
	m.ranks = nil
	return nil
}

func (m *mockRankStore) ListRankCandidates(ctx context.Context, minXLMValue float64, limit int) ([]*storage.RankCandidate, error) {
	if len(m.candidates) > limit {
		return m.candidates[:limit], nil
	}
	return m.candidates, nil
}

func (m *mockRankStore) SetRanks(ctx context.Context, ranks map[string]int) error {
	m.setCalls++
	m.ranks = ranks
	return nil
}

type mockRunLock struct {
	acquireErr error
	acquired   int
	released   int
}

func (m *mockRunLock) Acquire(ctx context.Context) error {
	if m.acquireErr != nil {
		return m.acquireErr
	}
	m.acquired++
	return nil
}

func (m *mockRunLock) Release(ctx context.Context) error {
	m.released++
	return nil
}

type mockPriceCache struct {
	stored map[string]float64
	ttl    time.Duration
}

func (m *mockPriceCache) StorePriceMap(ctx context.Context, prices map[string]float64, ttl time.Duration) error {
	m.stored = prices
	m.ttl = ttl
	return nil
}

func f64(v float64) *float64 {
	return &v
}
