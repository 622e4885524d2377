package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hueyfreemancodes/market-signals/internal/config"
	"github.com/hueyfreemancodes/market-signals/internal/database"
	"github.com/hueyfreemancodes/market-signals/internal/features"
	"github.com/hueyfreemancodes/market-signals/internal/metrics"
	"github.com/hueyfreemancodes/market-signals/internal/pipeline"
	"github.com/hueyfreemancodes/market-signals/internal/store"
	"github.com/hueyfreemancodes/market-signals/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/jobs.local.yaml", "path to config file")
	flag.Parse()

	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting feature update",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	if cfg.Metrics.Port > 0 {
		srv := metrics.Serve(fmt.Sprintf(":%d", cfg.Metrics.Port), cfg.Metrics.Path)
		defer srv.Close()
		logger.Info("metrics endpoint up", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	}

	calc, err := features.NewCalculator(features.Config{
		WindowSize: cfg.Features.WindowSize,
		EMAAlphas:  cfg.Features.EMAAlphas,
	})
	if err != nil {
		logger.Error("invalid feature config", "error", err)
		os.Exit(1)
	}

	runner := pipeline.NewFeatureRunner(
		jobConfig(cfg),
		calc,
		store.NewSnapshotStore(pool),
		store.NewFeatureStore(pool),
		logger,
	)

	summary, err := runner.Run(ctx)
	if err != nil {
		logger.Error("feature update failed", "error", err)
		os.Exit(1)
	}
	if summary.Failed > 0 {
		logger.Warn("feature update finished with failures", "failed", summary.Failed)
	}
}

// jobConfig maps the YAML jobs section onto runner settings.
func jobConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		Concurrency:   cfg.Jobs.Concurrency,
		BatchSize:     cfg.Jobs.BatchSize,
		BufferSize:    cfg.Jobs.BufferSize,
		WriteRetries:  cfg.Jobs.WriteRetries,
		RetryBaseWait: cfg.Jobs.RetryBaseWait.Duration(),
	}
}
