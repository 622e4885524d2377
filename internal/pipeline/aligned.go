package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hueyfreemancodes/market-signals/internal/align"
	"github.com/hueyfreemancodes/market-signals/internal/metrics"
	"github.com/hueyfreemancodes/market-signals/internal/model"
	"github.com/hueyfreemancodes/market-signals/internal/store"
)

// LinkageSource lists resolved linkages per venue.
type LinkageSource interface {
	Linkages(ctx context.Context, venue model.Venue) ([]model.MarketLinkage, error)
}

// FeatureSource reads a market's stored feature series.
type FeatureSource interface {
	Features(ctx context.Context, marketID string) ([]model.FeatureRecord, error)
}

// AlignedSink persists cross-venue training rows.
type AlignedSink interface {
	WriteBatch(ctx context.Context, rows []model.AlignedRow, runID string) (int, error)
}

// AlignRunner builds the aligned training set: for every primary-venue
// market it backward-joins the shadow venue's features and writes one row
// per primary observation.
type AlignRunner struct {
	cfg     Config
	aligner *align.Aligner
	links   LinkageSource
	feats   FeatureSource
	sink    AlignedSink
	logger  *slog.Logger

	mu      sync.Mutex
	summary Summary
}

// NewAlignRunner wires an align runner.
func NewAlignRunner(cfg Config, aligner *align.Aligner, links LinkageSource, feats FeatureSource, sink AlignedSink, logger *slog.Logger) *AlignRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlignRunner{
		cfg:     cfg,
		aligner: aligner,
		links:   links,
		feats:   feats,
		sink:    sink,
		logger:  logger,
	}
}

// Run pairs linked markets across venues and emits aligned rows. Primary
// markets without a shadow counterpart or without stored features are
// skipped, never fatal.
func (r *AlignRunner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	runID := uuid.New()
	r.mu.Lock()
	r.summary = Summary{RunID: runID}
	r.mu.Unlock()

	primary, err := r.links.Linkages(ctx, model.VenueCLOB)
	if err != nil {
		return r.snapshotSummary(start), err
	}
	shadow, err := r.links.Linkages(ctx, model.VenueEvent)
	if err != nil {
		return r.snapshotSummary(start), err
	}
	pairs := store.PairByKey(primary, shadow)

	r.mu.Lock()
	r.summary.Markets = len(primary)
	r.mu.Unlock()

	r.logger.Info("alignment started",
		"run_id", runID,
		"primary_markets", len(primary),
		"paired_markets", len(pairs),
	)

	buffer := NewRowBuffer[model.AlignedRow](r.cfg.BufferSize)

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		r.drain(ctx, buffer, runID.String())
	}()

	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	for _, link := range primary {
		wg.Add(1)
		go func(primaryID string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			r.processMarket(ctx, primaryID, pairs[primaryID], buffer)
		}(link.MarketID)
	}

	wg.Wait()
	buffer.Close()
	writerWG.Wait()

	summary := r.snapshotSummary(start)
	r.logger.Info("alignment complete",
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

// processMarket aligns one primary market against its shadow counterpart.
// An empty shadowID still produces rows, just with null shadow columns.
func (r *AlignRunner) processMarket(ctx context.Context, primaryID, shadowID string, buffer *RowBuffer[model.AlignedRow]) {
	primaryFeats, err := r.feats.Features(ctx, primaryID)
	if err != nil {
		r.logger.Warn("failed to fetch primary features", "market_id", primaryID, "err", err)
		r.countFailed()
		return
	}
	if len(primaryFeats) == 0 {
		r.countSkipped()
		return
	}

	var shadowFeats []model.FeatureRecord
	if shadowID != "" {
		shadowFeats, err = r.feats.Features(ctx, shadowID)
		if err != nil {
			r.logger.Warn("failed to fetch shadow features",
				"market_id", primaryID, "shadow_id", shadowID, "err", err)
			r.countFailed()
			return
		}
	}

	rows := r.aligner.Align(primaryFeats, shadowFeats)
	for i := range rows {
		if !buffer.Send(rows[i]) {
			return
		}
	}
	metrics.BufferDepth.WithLabelValues("trainingset").Set(float64(buffer.Len()))
	r.countProcessed()
	metrics.MarketsProcessed.WithLabelValues("trainingset").Inc()
}

func (r *AlignRunner) drain(ctx context.Context, buffer *RowBuffer[model.AlignedRow], runID string) {
	for {
		batch, ok := buffer.Next(r.cfg.BatchSize)
		if !ok {
			return
		}
		written := writeWithRetry(ctx, r.cfg, r.logger, "aligned_features", len(batch), func() (int, error) {
			return r.sink.WriteBatch(ctx, batch, runID)
		})
		r.mu.Lock()
		r.summary.Rows += written
		r.mu.Unlock()
	}
}

func (r *AlignRunner) countProcessed() {
	r.mu.Lock()
	r.summary.Processed++
	r.mu.Unlock()
}

func (r *AlignRunner) countSkipped() {
	r.mu.Lock()
	r.summary.Skipped++
	r.mu.Unlock()
	metrics.MarketsSkipped.WithLabelValues("trainingset").Inc()
}

func (r *AlignRunner) countFailed() {
	r.mu.Lock()
	r.summary.Failed++
	r.mu.Unlock()
	metrics.MarketsFailed.WithLabelValues("trainingset").Inc()
}

func (r *AlignRunner) snapshotSummary(start time.Time) Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary
	s.Duration = time.Since(start)
	return s
}
