package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hueyfreemancodes/market-signals/internal/model"
)

// LinkageStore reads and writes the market_linkages table.
type LinkageStore struct {
	db *pgxpool.Pool
}

// NewLinkageStore creates a linkage store over the given pool.
func NewLinkageStore(db *pgxpool.Pool) *LinkageStore {
	return &LinkageStore{db: db}
}

// CatalogEntry is a market awaiting linkage resolution: the venue's title
// plus the opaque identifier its game date is encoded in.
type CatalogEntry struct {
	MarketID   string
	Venue      model.Venue
	Title      string
	Identifier string // slug on the CLOB venue, ticker on the event venue
}

// Catalog returns every market the collector has seen, for linkage
// backfill.
func (s *LinkageStore) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT market_id, platform, title, identifier FROM market_catalog
	`)
	if err != nil {
		return nil, fmt.Errorf("query market catalog: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var (
			e     CatalogEntry
			venue string
		)
		if err := rows.Scan(&e.MarketID, &venue, &e.Title, &e.Identifier); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		e.Venue = model.Venue(venue)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market catalog: %w", err)
	}
	return entries, nil
}

// Linkages returns all linkage rows for the given venue.
func (s *LinkageStore) Linkages(ctx context.Context, venue model.Venue) ([]model.MarketLinkage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT market_id, source, team1, team2, game_date, original_title, created_at
		FROM market_linkages
		WHERE source = $1
	`, string(venue))
	if err != nil {
		return nil, fmt.Errorf("query linkages for %s: %w", venue, err)
	}
	defer rows.Close()

	var links []model.MarketLinkage
	for rows.Next() {
		var (
			l            model.MarketLinkage
			source       string
			team1, team2 string
			gameDate     time.Time
		)
		if err := rows.Scan(&l.MarketID, &source, &team1, &team2, &gameDate, &l.Title, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan linkage: %w", err)
		}
		l.Venue = model.Venue(source)
		l.Key = model.NewGameKey(gameDate, team1, team2)
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate linkages for %s: %w", venue, err)
	}
	return links, nil
}

// WriteBatch upserts linkage rows keyed on (market_id, source).
func (s *LinkageStore) WriteBatch(ctx context.Context, links []model.MarketLinkage) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i := range links {
		l := &links[i]
		gameDate, err := time.Parse("2006-01-02", l.Key.Date)
		if err != nil {
			return 0, fmt.Errorf("linkage for %s has malformed date %q: %w", l.MarketID, l.Key.Date, err)
		}
		createdAt := l.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO market_linkages (market_id, source, team1, team2, game_date, original_title, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (market_id, source) DO UPDATE SET
				team1 = EXCLUDED.team1,
				team2 = EXCLUDED.team2,
				game_date = EXCLUDED.game_date,
				original_title = EXCLUDED.original_title
		`, l.MarketID, string(l.Venue), l.Key.TeamA, l.Key.TeamB, gameDate, l.Title, createdAt)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range links {
		if _, err := results.Exec(); err != nil {
			return written, fmt.Errorf("upsert linkage: %w", err)
		}
		written++
	}
	return written, nil
}

// PairByKey indexes two venues' linkages by canonical key and returns the
// primary→shadow market ID mapping for every key present on both venues.
func PairByKey(primary, shadow []model.MarketLinkage) map[string]string {
	shadowByKey := make(map[model.GameKey]string, len(shadow))
	for _, l := range shadow {
		shadowByKey[l.Key] = l.MarketID
	}

	pairs := make(map[string]string)
	for _, l := range primary {
		if shadowID, ok := shadowByKey[l.Key]; ok {
			pairs[l.MarketID] = shadowID
		}
	}
	return pairs
}
