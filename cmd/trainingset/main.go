package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hueyfreemancodes/market-signals/internal/align"
	"github.com/hueyfreemancodes/market-signals/internal/config"
	"github.com/hueyfreemancodes/market-signals/internal/database"
	"github.com/hueyfreemancodes/market-signals/internal/metrics"
	"github.com/hueyfreemancodes/market-signals/internal/model"
	"github.com/hueyfreemancodes/market-signals/internal/pipeline"
	"github.com/hueyfreemancodes/market-signals/internal/store"
	"github.com/hueyfreemancodes/market-signals/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/jobs.local.yaml", "path to config file")
	csvPath := flag.String("csv", "", "also export aligned rows to this CSV file")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting training set build",
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

	if cfg.Metrics.Port > 0 {
		srv := metrics.Serve(fmt.Sprintf(":%d", cfg.Metrics.Port), cfg.Metrics.Path)
		defer srv.Close()
		logger.Info("metrics endpoint up", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	}

	aligner, err := align.New(cfg.Align.StalenessTolerance.Duration())
	if err != nil {
		logger.Error("invalid alignment config", "error", err)
		os.Exit(1)
	}

	var sink pipeline.AlignedSink = store.NewAlignedStore(pool)
	var exporter *csvExporter
	if *csvPath != "" {
		exporter, err = newCSVExporter(*csvPath, sink)
		if err != nil {
			logger.Error("failed to open CSV export", "path", *csvPath, "error", err)
			os.Exit(1)
		}
		sink = exporter
	}

	linkStore := store.NewLinkageStore(pool)
	runner := pipeline.NewAlignRunner(
		pipeline.Config{
			Concurrency:   cfg.Jobs.Concurrency,
			BatchSize:     cfg.Jobs.BatchSize,
			BufferSize:    cfg.Jobs.BufferSize,
			WriteRetries:  cfg.Jobs.WriteRetries,
			RetryBaseWait: cfg.Jobs.RetryBaseWait.Duration(),
		},
		aligner,
		linkStore,
		store.NewFeatureStore(pool),
		sink,
		logger,
	)

	summary, err := runner.Run(ctx)
	if exporter != nil {
		if closeErr := exporter.Close(); closeErr != nil {
			logger.Error("failed to finish CSV export", "path", *csvPath, "error", closeErr)
		} else {
			logger.Info("CSV export written", "path", *csvPath)
		}
	}
	if err != nil {
		logger.Error("training set build failed", "error", err)
		os.Exit(1)
	}
	if summary.Failed > 0 {
		logger.Warn("training set build finished with failures", "failed", summary.Failed)
	}
}

var csvHeader = []string{
	"timestamp", "market_id", "outcome",
	"ofi_1s", "vamp", "micro_price", "depth_ratio", "spread_volatility",
	"ofi_ema_01", "ofi_ema_03", "ofi_ema_05",
	"k_micro_price", "k_vamp", "k_ofi", "k_volatility",
	"arb_spread", "feed_latency", "shadow_ts",
}

// csvExporter tees aligned rows into a CSV file on the way to the real sink.
type csvExporter struct {
	next pipeline.AlignedSink

	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

func newCSVExporter(path string, next pipeline.AlignedSink) (*csvExporter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		file.Close()
		return nil, err
	}
	return &csvExporter{next: next, file: file, writer: writer}, nil
}

func (e *csvExporter) WriteBatch(ctx context.Context, rows []model.AlignedRow, runID string) (int, error) {
	e.mu.Lock()
	for i := range rows {
		if err := e.writer.Write(csvRecord(&rows[i])); err != nil {
			e.mu.Unlock()
			return 0, err
		}
	}
	e.mu.Unlock()
	return e.next.WriteBatch(ctx, rows, runID)
}

func (e *csvExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writer.Flush()
	if err := e.writer.Error(); err != nil {
		e.file.Close()
		return err
	}
	return e.file.Close()
}

func csvRecord(row *model.AlignedRow) []string {
	rec := []string{
		row.Timestamp.UTC().Format("2006-01-02T15:04:05.999999Z07:00"),
		row.MarketID,
		row.Outcome,
		formatFloat(row.OFI),
		formatFloat(row.VAMP),
		formatFloat(row.MicroPrice),
		formatFloat(row.DepthRatio),
		formatFloat(row.SpreadVolatility),
		formatFloat(row.OFIEMA01),
		formatFloat(row.OFIEMA03),
		formatFloat(row.OFIEMA05),
	}
	if s := row.Shadow; s != nil {
		rec = append(rec,
			formatFloat(s.MicroPrice),
			formatFloat(s.VAMP),
			formatFloat(s.OFI),
			formatFloat(s.Volatility),
			formatFloat(s.ArbSpread),
			formatFloat(s.FeedLatency),
			s.Timestamp.UTC().Format("2006-01-02T15:04:05.999999Z07:00"),
		)
	} else {
		rec = append(rec, "", "", "", "", "", "", "")
	}
	return rec
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
