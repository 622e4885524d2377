package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hueyfreemancodes/market-signals/internal/model"
)

// SnapshotStore reads order-book snapshots collected by the venue pollers.
type SnapshotStore struct {
	db *pgxpool.Pool
}

// NewSnapshotStore creates a snapshot reader over the given pool.
func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// LinkedMarketIDs returns the distinct market IDs present in the linkage
// table: the set of markets worth computing features for.
func (s *SnapshotStore) LinkedMarketIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT market_id FROM market_linkages`)
	if err != nil {
		return nil, fmt.Errorf("query linked market ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan market id: %w", err)
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market ids: %w", err)
	}
	return ids, nil
}

// Snapshots returns a market's full snapshot history ordered ascending by
// timestamp. Absent book levels come back as nil pointers, preserving the
// paired-null invariant.
func (s *SnapshotStore) Snapshots(ctx context.Context, marketID string) ([]model.OrderBookSnapshot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			timestamp, market_id, outcome, platform,
			bid_price_1, bid_size_1, bid_price_2, bid_size_2, bid_price_3, bid_size_3,
			ask_price_1, ask_size_1, ask_price_2, ask_size_2, ask_price_3, ask_size_3,
			mid_price, spread, total_bid_volume, total_ask_volume
		FROM order_book_snapshots
		WHERE market_id = $1
		ORDER BY timestamp ASC
	`, marketID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots for %s: %w", marketID, err)
	}
	defer rows.Close()

	var snaps []model.OrderBookSnapshot
	for rows.Next() {
		var (
			snap           model.OrderBookSnapshot
			venue          string
			bidVol, askVol *float64
		)
		err := rows.Scan(
			&snap.Timestamp, &snap.MarketID, &snap.Outcome, &venue,
			&snap.Bids[0].Price, &snap.Bids[0].Size,
			&snap.Bids[1].Price, &snap.Bids[1].Size,
			&snap.Bids[2].Price, &snap.Bids[2].Size,
			&snap.Asks[0].Price, &snap.Asks[0].Size,
			&snap.Asks[1].Price, &snap.Asks[1].Size,
			&snap.Asks[2].Price, &snap.Asks[2].Size,
			&snap.MidPrice, &snap.Spread,
			&bidVol, &askVol,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot for %s: %w", marketID, err)
		}
		snap.Venue = model.Venue(venue)
		if bidVol != nil {
			snap.TotalBidVolume = *bidVol
		}
		if askVol != nil {
			snap.TotalAskVolume = *askVol
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots for %s: %w", marketID, err)
	}
	return snaps, nil
}
