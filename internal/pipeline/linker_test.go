package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/hueyfreemancodes/market-signals/internal/model"
	"github.com/hueyfreemancodes/market-signals/internal/store"
)

type fakeCatalogSource struct {
	entries []store.CatalogEntry
	err     error
}

func (f *fakeCatalogSource) Catalog(ctx context.Context) ([]store.CatalogEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type fakeLinkageSink struct {
	links   []model.MarketLinkage
	batches int
}

func (f *fakeLinkageSink) WriteBatch(ctx context.Context, links []model.MarketLinkage) (int, error) {
	f.batches++
	f.links = append(f.links, links...)
	return len(links), nil
}

func TestLinkRunnerResolvesBothVenues(t *testing.T) {
	source := &fakeCatalogSource{entries: []store.CatalogEntry{
		{
			MarketID:   "clob-1",
			Venue:      model.VenueCLOB,
			Title:      "Lakers vs. Celtics",
			Identifier: "nba-lal-bos-2025-12-19",
		},
		{
			MarketID:   "event-1",
			Venue:      model.VenueEvent,
			Title:      "Los Angeles Lakers vs Boston Celtics Winner?",
			Identifier: "KXNBAGAME-25DEC19LALBOS-LAL",
		},
	}}
	sink := &fakeLinkageSink{}

	runner := NewLinkRunner(testConfig(), source, sink, nil)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Processed != 2 || summary.Skipped != 0 {
		t.Fatalf("summary = %+v, want 2 resolved", summary)
	}
	if len(sink.links) != 2 {
		t.Fatalf("sink received %d links, want 2", len(sink.links))
	}

	// Both venues name the same game, so the canonical keys must collide.
	if sink.links[0].Key != sink.links[1].Key {
		t.Errorf("keys differ across venues: %q vs %q",
			sink.links[0].Key.String(), sink.links[1].Key.String())
	}
	if got := sink.links[0].Key.String(); got != "2025-12-19|BOS|LAL" {
		t.Errorf("key = %q, want %q", got, "2025-12-19|BOS|LAL")
	}
}

func TestLinkRunnerSkipsUnresolvableTitles(t *testing.T) {
	source := &fakeCatalogSource{entries: []store.CatalogEntry{
		{
			MarketID:   "clob-1",
			Venue:      model.VenueCLOB,
			Title:      "Lakers vs. Celtics",
			Identifier: "nba-lal-bos-2025-12-19",
		},
		{
			MarketID:   "clob-2",
			Venue:      model.VenueCLOB,
			Title:      "Will it rain in Miami?",
			Identifier: "rain-mia-2025-12-19",
		},
		{
			MarketID:   "clob-3",
			Venue:      model.VenueCLOB,
			Title:      "Lakers vs. Celtics",
			Identifier: "nba-lal-bos", // no date
		},
	}}
	sink := &fakeLinkageSink{}

	runner := NewLinkRunner(testConfig(), source, sink, nil)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Processed != 1 || summary.Skipped != 2 {
		t.Errorf("summary = %+v, want 1 resolved 2 skipped", summary)
	}
	if len(sink.links) != 1 || sink.links[0].MarketID != "clob-1" {
		t.Errorf("sink links = %+v, want only clob-1", sink.links)
	}
}

func TestLinkRunnerBatchesWrites(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 2

	entries := make([]store.CatalogEntry, 5)
	for i := range entries {
		entries[i] = store.CatalogEntry{
			MarketID:   string(rune('a' + i)),
			Venue:      model.VenueCLOB,
			Title:      "Lakers vs. Celtics",
			Identifier: "nba-lal-bos-2025-12-19",
		}
	}
	source := &fakeCatalogSource{entries: entries}
	sink := &fakeLinkageSink{}

	runner := NewLinkRunner(cfg, source, sink, nil)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Rows != 5 {
		t.Errorf("summary.Rows = %d, want 5", summary.Rows)
	}
	if sink.batches != 3 {
		t.Errorf("sink saw %d batches, want 3", sink.batches)
	}
}

func TestLinkRunnerCatalogErrorIsFatal(t *testing.T) {
	source := &fakeCatalogSource{err: errors.New("relation does not exist")}
	runner := NewLinkRunner(testConfig(), source, &fakeLinkageSink{}, nil)

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded despite catalog failure")
	}
}
