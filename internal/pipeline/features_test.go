package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hueyfreemancodes/market-signals/internal/features"
	"github.com/hueyfreemancodes/market-signals/internal/model"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Concurrency = 4
	cfg.BatchSize = 10
	cfg.BufferSize = 16
	cfg.WriteRetries = 2
	cfg.RetryBaseWait = time.Millisecond
	return cfg
}

func f64(v float64) *float64 { return &v }

// testSnapshots builds a plausible snapshot series for one market.
func testSnapshots(marketID string, n int) []model.OrderBookSnapshot {
	base := time.Date(2025, 12, 19, 18, 0, 0, 0, time.UTC)
	snaps := make([]model.OrderBookSnapshot, n)
	for i := range snaps {
		s := model.OrderBookSnapshot{
			Timestamp:      base.Add(time.Duration(i) * time.Second),
			MarketID:       marketID,
			Outcome:        "YES",
			Venue:          model.VenueCLOB,
			MidPrice:       f64(0.505),
			Spread:         f64(0.01),
			TotalBidVolume: 600,
			TotalAskVolume: 400,
		}
		s.Bids[0] = model.BookLevel{Price: f64(0.50), Size: f64(600)}
		s.Asks[0] = model.BookLevel{Price: f64(0.51), Size: f64(400)}
		snaps[i] = s
	}
	return snaps
}

type fakeSnapshotSource struct {
	snaps    map[string][]model.OrderBookSnapshot
	listErr  error
	fetchErr map[string]error
}

func (f *fakeSnapshotSource) LinkedMarketIDs(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]string, 0, len(f.snaps))
	for id := range f.snaps {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeSnapshotSource) Snapshots(ctx context.Context, marketID string) ([]model.OrderBookSnapshot, error) {
	if err := f.fetchErr[marketID]; err != nil {
		return nil, err
	}
	return f.snaps[marketID], nil
}

type fakeFeatureSink struct {
	mu       sync.Mutex
	rows     int
	batches  int
	failures int // fail this many writes before succeeding
}

func (f *fakeFeatureSink) WriteBatch(ctx context.Context, records []model.FeatureRecord) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	if f.failures > 0 {
		f.failures--
		return 0, 0, errors.New("connection reset")
	}
	f.rows += len(records)
	return len(records), 0, nil
}

func newTestCalculator(t *testing.T) *features.Calculator {
	t.Helper()
	calc, err := features.NewCalculator(features.DefaultConfig())
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return calc
}

func TestFeatureRunnerProcessesAllMarkets(t *testing.T) {
	source := &fakeSnapshotSource{snaps: map[string][]model.OrderBookSnapshot{}}
	total := 0
	for i := 0; i < 7; i++ {
		id := fmt.Sprintf("market-%d", i)
		n := 5 + i
		source.snaps[id] = testSnapshots(id, n)
		total += n
	}
	sink := &fakeFeatureSink{}

	runner := NewFeatureRunner(testConfig(), newTestCalculator(t), source, sink, nil)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Markets != 7 || summary.Processed != 7 {
		t.Errorf("summary = %+v, want 7 markets processed", summary)
	}
	if summary.Failed != 0 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want no failures or skips", summary)
	}
	if sink.rows != total {
		t.Errorf("sink received %d rows, want %d", sink.rows, total)
	}
	if summary.Rows != total {
		t.Errorf("summary.Rows = %d, want %d", summary.Rows, total)
	}
}

func TestFeatureRunnerSkipsEmptyMarkets(t *testing.T) {
	source := &fakeSnapshotSource{snaps: map[string][]model.OrderBookSnapshot{
		"full":  testSnapshots("full", 4),
		"empty": nil,
	}}
	sink := &fakeFeatureSink{}

	runner := NewFeatureRunner(testConfig(), newTestCalculator(t), source, sink, nil)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Processed != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 processed 1 skipped", summary)
	}
}

func TestFeatureRunnerOneFailureDoesNotHalt(t *testing.T) {
	source := &fakeSnapshotSource{
		snaps: map[string][]model.OrderBookSnapshot{
			"good": testSnapshots("good", 4),
			"bad":  testSnapshots("bad", 4),
		},
		fetchErr: map[string]error{"bad": errors.New("timeout")},
	}
	sink := &fakeFeatureSink{}

	runner := NewFeatureRunner(testConfig(), newTestCalculator(t), source, sink, nil)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Processed != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 processed 1 failed", summary)
	}
	if sink.rows != 4 {
		t.Errorf("sink received %d rows, want 4", sink.rows)
	}
}

func TestFeatureRunnerListErrorIsFatal(t *testing.T) {
	source := &fakeSnapshotSource{listErr: errors.New("relation does not exist")}
	runner := NewFeatureRunner(testConfig(), newTestCalculator(t), source, &fakeFeatureSink{}, nil)

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded despite list failure")
	}
}

func TestFeatureRunnerRetriesFailedWrites(t *testing.T) {
	source := &fakeSnapshotSource{snaps: map[string][]model.OrderBookSnapshot{
		"m": testSnapshots("m", 3),
	}}
	sink := &fakeFeatureSink{failures: 2}

	runner := NewFeatureRunner(testConfig(), newTestCalculator(t), source, sink, nil)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sink.rows != 3 {
		t.Errorf("sink received %d rows after retries, want 3", sink.rows)
	}
	if sink.batches != 3 {
		t.Errorf("sink saw %d attempts, want 3 (2 failures + 1 success)", sink.batches)
	}
	if summary.Rows != 3 {
		t.Errorf("summary.Rows = %d, want 3", summary.Rows)
	}
}

func TestFeatureRunnerDropsBatchAfterRetryExhaustion(t *testing.T) {
	source := &fakeSnapshotSource{snaps: map[string][]model.OrderBookSnapshot{
		"m": testSnapshots("m", 3),
	}}
	sink := &fakeFeatureSink{failures: 100}

	runner := NewFeatureRunner(testConfig(), newTestCalculator(t), source, sink, nil)
	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Rows != 0 {
		t.Errorf("summary.Rows = %d, want 0 after dropped batch", summary.Rows)
	}
	// Initial attempt plus configured retries.
	if sink.batches != testConfig().WriteRetries+1 {
		t.Errorf("sink saw %d attempts, want %d", sink.batches, testConfig().WriteRetries+1)
	}
}
