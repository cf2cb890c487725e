// Package main provides the API server entry point for the portfolio
// tracker service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nucleo/portfolio-tracker/internal/api"
	"github.com/nucleo/portfolio-tracker/internal/config"
	"github.com/nucleo/portfolio-tracker/internal/logging"
	"github.com/nucleo/portfolio-tracker/internal/metrics"
	"github.com/nucleo/portfolio-tracker/internal/service"
	"github.com/nucleo/portfolio-tracker/internal/stellar"
	"github.com/nucleo/portfolio-tracker/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	ctx := context.Background()
	if err := clickhouse.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to ensure ClickHouse schema")
	}

	// Initialize repositories
	assetRepo := storage.NewAssetRepository(postgres)
	accountRepo := storage.NewAccountRepository(postgres)
	portfolioRepo := storage.NewPortfolioRepository(postgres)
	sampleRepo := storage.NewSampleRepository(clickhouse)

	if err := assetRepo.EnsureNative(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to ensure the native asset")
	}
	created, err := portfolioRepo.EnsurePortfolios(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to provision portfolios")
	}
	if created > 0 {
		logger.WithField("created", created).Info("Provisioned portfolios for new profiles")
	}

	// Initialize external clients
	horizon := stellar.NewClient(&cfg.Stellar)
	ticker := stellar.NewTickerClient(&cfg.Stellar)

	// Initialize the pass
	passMetrics := metrics.NewPassMetrics(prometheus.DefaultRegisterer)

	assembler := service.NewPriceAssembler(assetRepo, horizon, ticker, cfg.Pass.PriceWorkers, passMetrics)
	collector := service.NewCollector(
		portfolioRepo,
		portfolioRepo,
		accountRepo,
		assetRepo,
		horizon,
		sampleRepo,
		cfg.Pass.SamplingInterval,
		cfg.Pass.CollectorWorkers,
		passMetrics,
	)
	calculator := service.NewCalculator(portfolioRepo, sampleRepo, portfolioRepo, cfg.Pass.SamplingInterval)
	ranker := service.NewRankUpdater(portfolioRepo, cfg.Pass.RankMinimumBalance(), cfg.Pass.RankSize)
	runLock := storage.NewRunLock(redis, cfg.Pass.RunLockTTL)

	pass := service.NewPass(assembler, collector, calculator, ranker, runLock, redis, cfg.Pass.PriceCacheTTL, passMetrics)

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		WorkerToken:     cfg.Server.WorkerToken,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Minute, // a triggered pass responds only when done
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	server := api.NewServer(serverConfig, pass, portfolioRepo, sampleRepo)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Portfolio tracker API server started")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	logger.Info("Server stopped")
}
