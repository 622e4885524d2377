package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hueyfreemancodes/market-signals/internal/linkage"
	"github.com/hueyfreemancodes/market-signals/internal/metrics"
	"github.com/hueyfreemancodes/market-signals/internal/model"
	"github.com/hueyfreemancodes/market-signals/internal/store"
)

// CatalogSource lists markets awaiting linkage resolution.
type CatalogSource interface {
	Catalog(ctx context.Context) ([]store.CatalogEntry, error)
}

// LinkageSink persists resolved linkages.
type LinkageSink interface {
	WriteBatch(ctx context.Context, links []model.MarketLinkage) (int, error)
}

// LinkRunner resolves cataloged market titles into canonical game keys and
// upserts the resulting linkage rows. Titles that cannot be parsed are
// counted and skipped.
type LinkRunner struct {
	cfg    Config
	source CatalogSource
	sink   LinkageSink
	logger *slog.Logger
}

// NewLinkRunner wires a link runner.
func NewLinkRunner(cfg Config, source CatalogSource, sink LinkageSink, logger *slog.Logger) *LinkRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkRunner{cfg: cfg, source: source, sink: sink, logger: logger}
}

// Run resolves the whole catalog in one pass. Resolution is cheap string
// work, so unlike the other runners this one stays single-threaded.
func (r *LinkRunner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	runID := uuid.New()
	summary := Summary{RunID: runID}

	entries, err := r.source.Catalog(ctx)
	if err != nil {
		summary.Duration = time.Since(start)
		return summary, err
	}
	summary.Markets = len(entries)

	r.logger.Info("linkage resolution started", "run_id", runID, "markets", len(entries))

	now := time.Now().UTC()
	links := make([]model.MarketLinkage, 0, len(entries))
	for _, e := range entries {
		key, ok := linkage.Resolve(e.Venue, e.Title, e.Identifier)
		if !ok {
			r.logger.Debug("unresolvable market title",
				"market_id", e.MarketID, "venue", e.Venue, "title", e.Title)
			summary.Skipped++
			metrics.MarketsSkipped.WithLabelValues("linker").Inc()
			continue
		}
		links = append(links, model.MarketLinkage{
			MarketID:  e.MarketID,
			Venue:     e.Venue,
			Key:       key,
			Title:     e.Title,
			CreatedAt: now,
		})
		summary.Processed++
		metrics.MarketsProcessed.WithLabelValues("linker").Inc()
	}

	for i := 0; i < len(links); i += r.cfg.BatchSize {
		end := min(i+r.cfg.BatchSize, len(links))
		written := writeWithRetry(ctx, r.cfg, r.logger, "market_linkages", end-i, func() (int, error) {
			return r.sink.WriteBatch(ctx, links[i:end])
		})
		summary.Rows += written
	}

	summary.Duration = time.Since(start)
	r.logger.Info("linkage resolution complete",
		"run_id", runID,
		"markets", summary.Markets,
		"resolved", summary.Processed,
		"skipped", summary.Skipped,
		"rows", summary.Rows,
		"duration", summary.Duration,
	)
	return summary, nil
}
