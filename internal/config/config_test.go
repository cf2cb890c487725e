package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Pass.SamplingInterval != 12*time.Hour {
		t.Errorf("Expected 12h sampling interval, got %v", cfg.Pass.SamplingInterval)
	}
	if cfg.Pass.RankSize != 100 {
		t.Errorf("Expected 100 leaderboard slots, got %d", cfg.Pass.RankSize)
	}
	if cfg.Stellar.HorizonURL == "" {
		t.Error("Expected a default Horizon URL")
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SAMPLING_INTERVAL", "6h")
	t.Setenv("RANK_SIZE", "50")
	t.Setenv("WORKER_TOKEN", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Pass.SamplingInterval != 6*time.Hour {
		t.Errorf("Expected 6h sampling interval, got %v", cfg.Pass.SamplingInterval)
	}
	if cfg.Pass.RankSize != 50 {
		t.Errorf("Expected 50 leaderboard slots, got %d", cfg.Pass.RankSize)
	}
	if cfg.Server.WorkerToken != "secret" {
		t.Errorf("Expected worker token from environment, got %q", cfg.Server.WorkerToken)
	}
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SAMPLING_INTERVAL", "not-a-duration")
	t.Setenv("RANK_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Pass.SamplingInterval != 12*time.Hour {
		t.Errorf("Expected fallback to 12h, got %v", cfg.Pass.SamplingInterval)
	}
	if cfg.Pass.RankSize != 100 {
		t.Errorf("Expected fallback to 100, got %d", cfg.Pass.RankSize)
	}
}

func TestRankMinimumBalance(t *testing.T) {
	pass := PassConfig{MinAccountBalance: 2, RankThresholdFactor: 5}
	if got := pass.RankMinimumBalance(); got != 10 {
		t.Errorf("Expected threshold 10 XLM, got %f", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("RANK_SIZE", "0")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected validation failure for a zero rank size")
	}
}
