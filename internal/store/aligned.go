package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hueyfreemancodes/market-signals/internal/model"
)

// AlignedStore writes the aligned_features table consumed by model training.
type AlignedStore struct {
	db *pgxpool.Pool
}

// NewAlignedStore creates an aligned-feature writer over the given pool.
func NewAlignedStore(db *pgxpool.Pool) *AlignedStore {
	return &AlignedStore{db: db}
}

// WriteBatch upserts aligned rows keyed on (timestamp, market_id, outcome).
// runID tags which trainingset run produced the rows.
func (s *AlignedStore) WriteBatch(ctx context.Context, rows []model.AlignedRow, runID string) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i := range rows {
		r := &rows[i]
		kMicro, kVAMP, kOFI, kVol, arb, latency, shadowTS := shadowColumns(r)
		batch.Queue(`
			INSERT INTO aligned_features (
				timestamp, market_id, outcome,
				ofi_1s, vamp, micro_price, depth_ratio, spread_volatility,
				ofi_ema_01, ofi_ema_03, ofi_ema_05,
				k_micro_price, k_vamp, k_ofi, k_volatility,
				arb_spread, feed_latency, shadow_ts, run_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			ON CONFLICT (timestamp, market_id, outcome) DO UPDATE SET
				ofi_1s = EXCLUDED.ofi_1s,
				vamp = EXCLUDED.vamp,
				micro_price = EXCLUDED.micro_price,
				depth_ratio = EXCLUDED.depth_ratio,
				spread_volatility = EXCLUDED.spread_volatility,
				ofi_ema_01 = EXCLUDED.ofi_ema_01,
				ofi_ema_03 = EXCLUDED.ofi_ema_03,
				ofi_ema_05 = EXCLUDED.ofi_ema_05,
				k_micro_price = EXCLUDED.k_micro_price,
				k_vamp = EXCLUDED.k_vamp,
				k_ofi = EXCLUDED.k_ofi,
				k_volatility = EXCLUDED.k_volatility,
				arb_spread = EXCLUDED.arb_spread,
				feed_latency = EXCLUDED.feed_latency,
				shadow_ts = EXCLUDED.shadow_ts,
				run_id = EXCLUDED.run_id
		`,
			r.Timestamp, r.MarketID, r.Outcome,
			r.OFI, r.VAMP, r.MicroPrice, r.DepthRatio, r.SpreadVolatility,
			r.OFIEMA01, r.OFIEMA03, r.OFIEMA05,
			kMicro, kVAMP, kOFI, kVol,
			arb, latency, shadowTS, runID,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range rows {
		if _, err := results.Exec(); err != nil {
			return written, fmt.Errorf("upsert aligned row: %w", err)
		}
		written++
	}
	return written, nil
}

// shadowColumns expands the nilable shadow group into individual column
// values: all NULL together or all set together, never mixed.
func shadowColumns(r *model.AlignedRow) (kMicro, kVAMP, kOFI, kVol, arb, latency *float64, shadowTS *time.Time) {
	if r.Shadow == nil {
		return nil, nil, nil, nil, nil, nil, nil
	}
	s := r.Shadow
	return &s.MicroPrice, &s.VAMP, &s.OFI, &s.Volatility, &s.ArbSpread, &s.FeedLatency, &s.Timestamp
}
