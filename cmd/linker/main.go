package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hueyfreemancodes/market-signals/internal/config"
	"github.com/hueyfreemancodes/market-signals/internal/database"
	"github.com/hueyfreemancodes/market-signals/internal/pipeline"
	"github.com/hueyfreemancodes/market-signals/internal/store"
	"github.com/hueyfreemancodes/market-signals/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/jobs.local.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting market linker",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

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

	linkStore := store.NewLinkageStore(pool)
	runner := pipeline.NewLinkRunner(
		pipeline.Config{
			Concurrency:   cfg.Jobs.Concurrency,
			BatchSize:     cfg.Jobs.BatchSize,
			BufferSize:    cfg.Jobs.BufferSize,
			WriteRetries:  cfg.Jobs.WriteRetries,
			RetryBaseWait: cfg.Jobs.RetryBaseWait.Duration(),
		},
		linkStore,
		linkStore,
		logger,
	)

	if _, err := runner.Run(ctx); err != nil {
		logger.Error("market linking failed", "error", err)
		os.Exit(1)
	}
}
