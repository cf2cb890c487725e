package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nucleo/portfolio-tracker/internal/logging"
	"github.com/nucleo/portfolio-tracker/internal/models"
	"github.com/nucleo/portfolio-tracker/internal/storage"
)

// handleRunPass triggers one pass and reports its summary. A pass already
// holding the run lock yields 409 without doing any work.
func (s *Server) handleRunPass(w http.ResponseWriter, r *http.Request) {
	summary, err := s.pass.Run(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("Pass trigger failed")
		status, code, message := mapError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleLeaderboard returns the ranked portfolios in rank order
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.portfolios.Leaderboard(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("Leaderboard query failed")
		status, code, message := mapError(err)
		respondError(w, status, code, message)
		return
	}

	if entries == nil {
		entries = []*storage.LeaderboardEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": entries,
	})
}

// handleGetPortfolio returns one portfolio's cached values, trailing
// returns, and rank
func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	portfolio, err := s.portfolios.GetByID(r.Context(), id)
	if err != nil {
		status, code, message := mapError(err)
		if status >= http.StatusInternalServerError {
			logging.FromContext(r.Context()).WithError(err).Error("Portfolio lookup failed")
		}
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, portfolio)
}

// historyResponse is the payload of the portfolio history endpoint
type historyResponse struct {
	PortfolioID string                    `json:"portfolioId"`
	Window      models.PerformanceWindow  `json:"window"`
	Samples     []*models.PortfolioSample `json:"samples"`
}

// handleGetHistory returns the value samples of one portfolio over a
// trailing window. The window query parameter defaults to 1w.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	window := models.PerformanceWindow(r.URL.Query().Get("window"))
	if window == "" {
		window = models.Window1W
	}
	if window.Length() == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "unknown window: "+string(window))
		return
	}

	// The portfolio must exist even when it has no samples yet
	if _, err := s.portfolios.GetByID(r.Context(), id); err != nil {
		status, code, message := mapError(err)
		if status >= http.StatusInternalServerError {
			logging.FromContext(r.Context()).WithError(err).Error("Portfolio lookup failed")
		}
		respondError(w, status, code, message)
		return
	}

	from := time.Now().UTC().Add(-window.Length())
	samples, err := s.samples.Range(r.Context(), id, from)
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("Sample range query failed")
		status, code, message := mapError(err)
		respondError(w, status, code, message)
		return
	}

	if samples == nil {
		samples = []*models.PortfolioSample{}
	}
	respondJSON(w, http.StatusOK, historyResponse{
		PortfolioID: id,
		Window:      window,
		Samples:     samples,
	})
}
