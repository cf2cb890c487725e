package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nucleo/portfolio-tracker/internal/models"
	"github.com/nucleo/portfolio-tracker/internal/service"
	"github.com/nucleo/portfolio-tracker/internal/storage"
)

// Mock dependencies for handler tests

type mockPassRunner struct {
	summary *service.Summary
	err     error
	runs    int
}

func (m *mockPassRunner) Run(ctx context.Context) (*service.Summary, error) {
	m.runs++
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

type mockPortfolioReader struct {
	portfolios map[string]*models.Portfolio
	entries    []*storage.LeaderboardEntry
}

func (m *mockPortfolioReader) GetByID(ctx context.Context, id string) (*models.Portfolio, error) {
	if p, ok := m.portfolios[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrPortfolioNotFound, id)
}

func (m *mockPortfolioReader) Leaderboard(ctx context.Context) ([]*storage.LeaderboardEntry, error) {
	return m.entries, nil
}

type mockSampleReader struct {
	samples []*models.PortfolioSample
}

func (m *mockSampleReader) Range(ctx context.Context, portfolioID string, from time.Time) ([]*models.PortfolioSample, error) {
	return m.samples, nil
}

func testServer(pass *mockPassRunner, portfolios *mockPortfolioReader, samples *mockSampleReader) *Server {
	return NewServer(&ServerConfig{
		Host:        "localhost",
		Port:        "0",
		WorkerToken: "test-token",
	}, pass, portfolios, samples)
}

func doRequest(s *Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(&mockPassRunner{}, &mockPortfolioReader{}, &mockSampleReader{})

	rec := doRequest(s, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestRunPassRequiresWorkerToken(t *testing.T) {
	pass := &mockPassRunner{summary: &service.Summary{}}
	s := testServer(pass, &mockPortfolioReader{}, &mockSampleReader{})

	rec := doRequest(s, "POST", "/tasks/performance", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	rec = doRequest(s, "POST", "/tasks/performance", map[string]string{"X-Worker-Token": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a wrong token, got %d", rec.Code)
	}

	if pass.runs != 0 {
		t.Errorf("Unauthorized requests must not trigger a pass, got %d runs", pass.runs)
	}
}

func TestRunPassReturnsSummary(t *testing.T) {
	pass := &mockPassRunner{summary: &service.Summary{
		AssetsPriced:      3,
		PortfoliosSampled: 2,
		PortfoliosRanked:  2,
	}}
	s := testServer(pass, &mockPortfolioReader{}, &mockSampleReader{})

	rec := doRequest(s, "POST", "/tasks/performance", map[string]string{"X-Worker-Token": "test-token"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary service.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.AssetsPriced != 3 || summary.PortfoliosSampled != 2 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

func TestRunPassConflictWhenLockHeld(t *testing.T) {
	pass := &mockPassRunner{err: storage.ErrLockHeld}
	s := testServer(pass, &mockPortfolioReader{}, &mockSampleReader{})

	rec := doRequest(s, "POST", "/tasks/performance", map[string]string{"X-Worker-Token": "test-token"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 while a pass is running, got %d", rec.Code)
	}
}

func TestEmptyWorkerTokenDisablesTrigger(t *testing.T) {
	pass := &mockPassRunner{summary: &service.Summary{}}
	s := NewServer(&ServerConfig{Host: "localhost", Port: "0"}, pass, &mockPortfolioReader{}, &mockSampleReader{})

	rec := doRequest(s, "POST", "/tasks/performance", map[string]string{"X-Worker-Token": ""})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 with no configured token, got %d", rec.Code)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	portfolios := &mockPortfolioReader{entries: []*storage.LeaderboardEntry{
		{Rank: 1, PortfolioID: "p1", Username: "alice", USDValue: 120},
		{Rank: 2, PortfolioID: "p2", Username: "bob", USDValue: 80},
	}}
	s := testServer(&mockPassRunner{}, portfolios, &mockSampleReader{})

	rec := doRequest(s, "GET", "/api/leaderboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Leaderboard []*storage.LeaderboardEntry `json:"leaderboard"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode leaderboard: %v", err)
	}
	if len(body.Leaderboard) != 2 || body.Leaderboard[0].Username != "alice" {
		t.Errorf("Unexpected leaderboard: %+v", body.Leaderboard)
	}
}

func TestGetPortfolio(t *testing.T) {
	rank := 5
	portfolios := &mockPortfolioReader{portfolios: map[string]*models.Portfolio{
		"p1": {ID: "p1", ProfileID: "profile1", USDValue: 42, Rank: &rank},
	}}
	s := testServer(&mockPassRunner{}, portfolios, &mockSampleReader{})

	rec := doRequest(s, "GET", "/api/portfolios/p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var portfolio models.Portfolio
	if err := json.NewDecoder(rec.Body).Decode(&portfolio); err != nil {
		t.Fatalf("Failed to decode portfolio: %v", err)
	}
	if portfolio.ID != "p1" || portfolio.Rank == nil || *portfolio.Rank != 5 {
		t.Errorf("Unexpected portfolio: %+v", portfolio)
	}
}

func TestGetPortfolioNotFound(t *testing.T) {
	s := testServer(&mockPassRunner{}, &mockPortfolioReader{}, &mockSampleReader{})

	rec := doRequest(s, "GET", "/api/portfolios/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestGetHistory(t *testing.T) {
	now := time.Now().UTC()
	portfolios := &mockPortfolioReader{portfolios: map[string]*models.Portfolio{
		"p1": {ID: "p1"},
	}}
	samples := &mockSampleReader{samples: []*models.PortfolioSample{
		{PortfolioID: "p1", XLMValue: 100, USDValue: 10, CreatedAt: now.Add(-24 * time.Hour)},
		{PortfolioID: "p1", XLMValue: 110, USDValue: 11, CreatedAt: now},
	}}
	s := testServer(&mockPassRunner{}, portfolios, samples)

	rec := doRequest(s, "GET", "/api/portfolios/p1/history?window=1m", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body historyResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode history: %v", err)
	}
	if body.Window != models.Window1M || len(body.Samples) != 2 {
		t.Errorf("Unexpected history: %+v", body)
	}
}

func TestGetHistoryRejectsUnknownWindow(t *testing.T) {
	portfolios := &mockPortfolioReader{portfolios: map[string]*models.Portfolio{"p1": {ID: "p1"}}}
	s := testServer(&mockPassRunner{}, portfolios, &mockSampleReader{})

	rec := doRequest(s, "GET", "/api/portfolios/p1/history?window=2y", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for an unknown window, got %d", rec.Code)
	}
}

func TestGetHistoryUnknownPortfolio(t *testing.T) {
	s := testServer(&mockPassRunner{}, &mockPortfolioReader{}, &mockSampleReader{})

	rec := doRequest(s, "GET", "/api/portfolios/missing/history", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}
