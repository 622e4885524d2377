package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hueyfreemancodes/market-signals/internal/features"
	"github.com/hueyfreemancodes/market-signals/internal/metrics"
	"github.com/hueyfreemancodes/market-signals/internal/model"
)

// Config holds shared batch runner settings.
type Config struct {
	Concurrency   int           // markets processed in parallel
	BatchSize     int           // rows per database batch
	BufferSize    int           // initial row buffer capacity
	WriteRetries  int           // retries after a failed batch write
	RetryBaseWait time.Duration // first retry delay, doubled per attempt
}

// DefaultConfig returns sensible batch settings.
func DefaultConfig() Config {
	return Config{
		Concurrency:   8,
		BatchSize:     500,
		BufferSize:    4096,
		WriteRetries:  3,
		RetryBaseWait: time.Second,
	}
}

// SnapshotSource provides markets and their snapshot history.
type SnapshotSource interface {
	LinkedMarketIDs(ctx context.Context) ([]string, error)
	Snapshots(ctx context.Context, marketID string) ([]model.OrderBookSnapshot, error)
}

// FeatureSink persists computed feature records.
type FeatureSink interface {
	WriteBatch(ctx context.Context, records []model.FeatureRecord) (inserted, updated int, err error)
}

// Summary reports what a run did.
type Summary struct {
	RunID     uuid.UUID
	Markets   int
	Processed int
	Skipped   int
	Failed    int
	Rows      int
	Duration  time.Duration
}

// FeatureRunner recomputes microstructure features for every linked market.
type FeatureRunner struct {
	cfg    Config
	calc   *features.Calculator
	source SnapshotSource
	sink   FeatureSink
	logger *slog.Logger

	mu      sync.Mutex
	summary Summary
}

// NewFeatureRunner wires a runner.
func NewFeatureRunner(cfg Config, calc *features.Calculator, source SnapshotSource, sink FeatureSink, logger *slog.Logger) *FeatureRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeatureRunner{
		cfg:    cfg,
		calc:   calc,
		source: source,
		sink:   sink,
		logger: logger,
	}
}

// Run executes one full recomputation pass. Individual market failures are
// counted, logged, and skipped; only a failure to list markets is fatal.
func (r *FeatureRunner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	runID := uuid.New()
	r.mu.Lock()
	r.summary = Summary{RunID: runID}
	r.mu.Unlock()

	ids, err := r.source.LinkedMarketIDs(ctx)
	if err != nil {
		return r.snapshotSummary(start), err
	}

	r.mu.Lock()
	r.summary.Markets = len(ids)
	r.mu.Unlock()

	r.logger.Info("feature update started",
		"run_id", runID,
		"markets", len(ids),
		"concurrency", r.cfg.Concurrency,
	)

	buffer := NewRowBuffer[model.FeatureRecord](r.cfg.BufferSize)

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		r.drain(ctx, buffer)
	}()

	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(marketID string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			r.processMarket(ctx, marketID, buffer)
		}(id)
	}

	wg.Wait()
	buffer.Close()
	writerWG.Wait()

	summary := r.snapshotSummary(start)
	r.logger.Info("feature update complete",
		"run_id", runID,
		"markets", summary.Markets,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"rows", summary.Rows,
		"duration", summary.Duration,
	)
	return summary, nil
}

// processMarket computes one market's feature series and queues the rows.
// The calculator pass is strictly sequential within the market.
func (r *FeatureRunner) processMarket(ctx context.Context, marketID string, buffer *RowBuffer[model.FeatureRecord]) {
	snaps, err := r.source.Snapshots(ctx, marketID)
	if err != nil {
		r.logger.Warn("failed to fetch snapshots", "market_id", marketID, "err", err)
		r.countFailed()
		return
	}
	if len(snaps) == 0 {
		r.countSkipped()
		return
	}

	records, err := r.calc.Calculate(snaps)
	if err != nil {
		r.logger.Warn("feature calculation failed", "market_id", marketID, "err", err)
		r.countFailed()
		return
	}

	for i := range records {
		if !buffer.Send(records[i]) {
			return
		}
	}
	metrics.BufferDepth.WithLabelValues("featureupdate").Set(float64(buffer.Len()))
	r.countProcessed()
	metrics.MarketsProcessed.WithLabelValues("featureupdate").Inc()
}

// drain moves buffered rows into the sink in batches until the buffer closes.
func (r *FeatureRunner) drain(ctx context.Context, buffer *RowBuffer[model.FeatureRecord]) {
	for {
		batch, ok := buffer.Next(r.cfg.BatchSize)
		if !ok {
			return
		}
		written := writeWithRetry(ctx, r.cfg, r.logger, "microstructure_features", len(batch), func() (int, error) {
			inserted, updated, err := r.sink.WriteBatch(ctx, batch)
			return inserted + updated, err
		})
		r.mu.Lock()
		r.summary.Rows += written
		r.mu.Unlock()
	}
}

func (r *FeatureRunner) countProcessed() {
	r.mu.Lock()
	r.summary.Processed++
	r.mu.Unlock()
}

func (r *FeatureRunner) countSkipped() {
	r.mu.Lock()
	r.summary.Skipped++
	r.mu.Unlock()
	metrics.MarketsSkipped.WithLabelValues("featureupdate").Inc()
}

func (r *FeatureRunner) countFailed() {
	r.mu.Lock()
	r.summary.Failed++
	r.mu.Unlock()
	metrics.MarketsFailed.WithLabelValues("featureupdate").Inc()
}

func (r *FeatureRunner) snapshotSummary(start time.Time) Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary
	s.Duration = time.Since(start)
	return s
}

// writeWithRetry attempts a batch write with exponential backoff. Exhausted
// retries are logged and the batch dropped; the run continues.
func writeWithRetry(ctx context.Context, cfg Config, logger *slog.Logger, table string, batchLen int, write func() (int, error)) int {
	wait := cfg.RetryBaseWait
	for attempt := 0; ; attempt++ {
		written, err := write()
		if err == nil {
			metrics.RowsWritten.WithLabelValues(table).Add(float64(written))
			return written
		}
		if attempt >= cfg.WriteRetries {
			logger.Error("batch write failed, dropping batch",
				"table", table,
				"rows", batchLen,
				"attempts", attempt+1,
				"err", err,
			)
			return 0
		}

		logger.Warn("batch write failed, retrying",
			"table", table,
			"rows", batchLen,
			"attempt", attempt+1,
			"wait", wait,
			"err", err,
		)
		metrics.WriteRetries.WithLabelValues(table).Inc()

		select {
		case <-ctx.Done():
			return 0
		case <-time.After(wait):
		}
		wait *= 2
	}
}
