package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hueyfreemancodes/market-signals/internal/model"
)

// FeatureStore reads and writes the microstructure_features table.
type FeatureStore struct {
	db *pgxpool.Pool
}

// NewFeatureStore creates a feature store over the given pool.
func NewFeatureStore(db *pgxpool.Pool) *FeatureStore {
	return &FeatureStore{db: db}
}

// WriteBatch upserts feature records keyed on (timestamp, market_id,
// outcome), so recomputation overwrites instead of duplicating. Returns how
// many rows were freshly inserted versus updated in place.
func (s *FeatureStore) WriteBatch(ctx context.Context, records []model.FeatureRecord) (inserted, updated int, err error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	batch := &pgx.Batch{}
	for i := range records {
		r := &records[i]
		batch.Queue(`
			INSERT INTO microstructure_features (
				timestamp, market_id, outcome,
				ofi_1s, ofi_5s, ofi_15s, ofi_60s,
				vamp, micro_price, obi_weighted,
				kyle_lambda, pin_score,
				volume_imbalance, depth_ratio, spread_volatility,
				ofi_ema_01, ofi_ema_03, ofi_ema_05
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			ON CONFLICT (timestamp, market_id, outcome) DO UPDATE SET
				ofi_1s = EXCLUDED.ofi_1s,
				ofi_5s = EXCLUDED.ofi_5s,
				ofi_15s = EXCLUDED.ofi_15s,
				ofi_60s = EXCLUDED.ofi_60s,
				vamp = EXCLUDED.vamp,
				micro_price = EXCLUDED.micro_price,
				obi_weighted = EXCLUDED.obi_weighted,
				kyle_lambda = EXCLUDED.kyle_lambda,
				pin_score = EXCLUDED.pin_score,
				volume_imbalance = EXCLUDED.volume_imbalance,
				depth_ratio = EXCLUDED.depth_ratio,
				spread_volatility = EXCLUDED.spread_volatility,
				ofi_ema_01 = EXCLUDED.ofi_ema_01,
				ofi_ema_03 = EXCLUDED.ofi_ema_03,
				ofi_ema_05 = EXCLUDED.ofi_ema_05
			RETURNING (xmax = 0) AS fresh
		`,
			r.Timestamp, r.MarketID, r.Outcome,
			r.OFI, r.OFI5s, r.OFI15s, r.OFI60s,
			r.VAMP, r.MicroPrice, r.OBIWeighted,
			r.KyleLambda, r.PINScore,
			r.VolumeImbalance, r.DepthRatio, r.SpreadVolatility,
			r.OFIEMA01, r.OFIEMA03, r.OFIEMA05,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		var fresh bool
		if err := results.QueryRow().Scan(&fresh); err != nil {
			return inserted, updated, fmt.Errorf("upsert feature row: %w", err)
		}
		if fresh {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}

// Features returns a market's feature rows ordered ascending by timestamp,
// the contract the aligner relies on.
func (s *FeatureStore) Features(ctx context.Context, marketID string) ([]model.FeatureRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			timestamp, market_id, outcome,
			ofi_1s, vamp, micro_price, depth_ratio, spread_volatility,
			ofi_ema_01, ofi_ema_03, ofi_ema_05
		FROM microstructure_features
		WHERE market_id = $1
		ORDER BY timestamp ASC
	`, marketID)
	if err != nil {
		return nil, fmt.Errorf("query features for %s: %w", marketID, err)
	}
	defer rows.Close()

	var records []model.FeatureRecord
	for rows.Next() {
		var r model.FeatureRecord
		err := rows.Scan(
			&r.Timestamp, &r.MarketID, &r.Outcome,
			&r.OFI, &r.VAMP, &r.MicroPrice, &r.DepthRatio, &r.SpreadVolatility,
			&r.OFIEMA01, &r.OFIEMA03, &r.OFIEMA05,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feature row for %s: %w", marketID, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate features for %s: %w", marketID, err)
	}
	return records, nil
}
