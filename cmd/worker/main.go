// Package main provides the scheduled worker entry point. It runs one
// valuation/performance/ranking pass and exits, intended to be invoked by
// cron or a container scheduler.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nucleo/portfolio-tracker/internal/config"
	"github.com/nucleo/portfolio-tracker/internal/logging"
	"github.com/nucleo/portfolio-tracker/internal/metrics"
	"github.com/nucleo/portfolio-tracker/internal/service"
	"github.com/nucleo/portfolio-tracker/internal/stellar"
	"github.com/nucleo/portfolio-tracker/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

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

	ctx := logging.WithLogger(context.Background(), logger)

	if err := clickhouse.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to ensure ClickHouse schema")
	}

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

	horizon := stellar.NewClient(&cfg.Stellar)
	ticker := stellar.NewTickerClient(&cfg.Stellar)

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

	summary, err := pass.Run(ctx)
	if errors.Is(err, storage.ErrLockHeld) {
		// Another run is in progress; the schedule retries later
		logger.Warn("Run lock held, skipping this invocation")
		return
	}
	if err != nil {
		logger.WithError(err).Error("Pass failed")
		os.Exit(1)
	}

	logger.WithFields(map[string]interface{}{
		"assetsPriced":      summary.AssetsPriced,
		"portfoliosSampled": summary.PortfoliosSampled,
		"accountsRemoved":   summary.AccountsRemoved,
		"portfoliosRanked":  summary.PortfoliosRanked,
		"duration":          summary.Duration.String(),
	}).Info("Pass finished")
}
