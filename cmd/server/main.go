// Package main is the entry point for the coinscan service: a two-pass
// market scanner that runs every registered strategy evaluator over a coin
// universe, aggregates the results into consensus recommendations, and
// serves them over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"coinscan/internal/analyzer"
	"coinscan/internal/bots"
	"coinscan/internal/clients/coingecko"
	"coinscan/internal/clients/derivatives"
	"coinscan/internal/clients/sentiment"
	"coinscan/internal/config"
	"coinscan/internal/database"
	"coinscan/internal/domain"
	"coinscan/internal/events"
	"coinscan/internal/notify"
	"coinscan/internal/regime"
	"coinscan/internal/reliability"
	"coinscan/internal/scan"
	"coinscan/internal/scheduler"
	"coinscan/internal/server"
	"coinscan/internal/storage"
	"coinscan/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting coinscan")

	// Databases: scans holds runs/predictions/recommendations, cache holds
	// ephemeral candle history blobs
	scansDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "scans.db"),
		Profile: database.ProfileStandard,
		Name:    "scans",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open scans database")
	}
	defer scansDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{scansDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Migration failed")
		}
	}

	// Repositories
	runRepo := storage.NewScanRunRepository(scansDB.Conn(), log)
	botRepo := storage.NewBotResultRepository(scansDB.Conn(), log)
	recRepo := storage.NewRecommendationRepository(scansDB.Conn(), log)
	candleCache := storage.NewCandleCache(cacheDB.Conn(), storage.DefaultCandleTTL, log)

	// External clients. Derivatives and enrichment are optional; leaving
	// them unconfigured disables the respective pipeline steps.
	marketClient := coingecko.NewClient(cfg.CoinGeckoBaseURL, cfg.CoinGeckoAPIKey, candleCache, log)

	var derivativesClient domain.DerivativesClient
	if cfg.DerivativesBaseURL != "" {
		derivativesClient = derivatives.NewClient(cfg.DerivativesBaseURL, log)
	}

	var sentimentService domain.SentimentService
	var synthesisService domain.SynthesisService
	if cfg.SentimentServiceURL != "" {
		enrichmentClient := sentiment.NewClient(cfg.SentimentServiceURL, cfg.SentimentAPIKey, log)
		sentimentService = enrichmentClient
		synthesisService = enrichmentClient
	}

	var notifier domain.Notifier
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyEmailTo, log)
	}

	// Scan pipeline
	registry := bots.NewRegistry()
	log.Info().Int("evaluators", registry.Count()).Msg("Strategy evaluators registered")

	monitor := scan.NewMonitor()
	bus := events.NewBus()
	coinAnalyzer := analyzer.New(botRepo, log)

	orchestrator := scan.NewOrchestrator(scan.Deps{
		Market:      marketClient,
		Derivatives: derivativesClient,
		Sentiment:   sentimentService,
		Synthesis:   synthesisService,
		Regime:      regime.NewClassifier(marketClient, log),
		Notifier:    notifier,
		RunRepo:     runRepo,
		BotRepo:     botRepo,
		RecRepo:     recRepo,
		Analyzer:    coinAnalyzer,
		Registry:    registry,
		Monitor:     monitor,
		Bus:         bus,
	}, log)

	// Background jobs
	sched := scheduler.New(log)
	if cfg.ScanCron != "" {
		if err := sched.AddJob(cfg.ScanCron, scheduler.NewScanJob(orchestrator, cfg.ScanCronType, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register scheduled scan")
		}
	}
	cleanupJob := scheduler.NewCacheCleanupJob(candleCache, log)
	if err := sched.AddJob("@hourly", cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup")
	}
	// Candles left behind by the previous process expire now, not at the
	// first hourly tick
	if err := sched.RunNow(cleanupJob); err != nil {
		log.Warn().Err(err).Msg("Startup cache cleanup failed")
	}
	if cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create backup storage client")
		}
		backupService := reliability.NewBackupService(
			s3Client,
			[]*database.DB{scansDB},
			cfg.DataDir,
			cfg.Backup.RetentionCount,
			log,
		)
		if err := sched.AddJob("0 3 * * *", scheduler.NewBackupJob(backupService, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	}
	sched.Start()

	// HTTP server
	srv := server.New(server.Config{
		Log:          log,
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
		Orchestrator: orchestrator,
		Monitor:      monitor,
		Bus:          bus,
		RunRepo:      runRepo,
		RecRepo:      recRepo,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	// Wait for shutdown signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("Server stopped unexpectedly")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	// A running scan is cancelled rather than awaited; its run record is
	// closed by the orchestrator's own teardown
	if runID, err := monitor.CancelCurrent(); err == nil {
		log.Info().Str("run_id", runID).Msg("Cancelled in-flight scan for shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	sched.Stop()
	log.Info().Msg("Shutdown complete")
}
