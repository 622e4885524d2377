package model

import (
	"sort"
	"time"
)

// -----------------------------------------------------------------------------
// Venues
// -----------------------------------------------------------------------------

// Venue identifies which exchange a record came from.
type Venue string

const (
	// VenueCLOB is the primary venue: a central-limit-order-book exchange.
	VenueCLOB Venue = "clob"
	// VenueEvent is the shadow venue: an event-contract exchange.
	VenueEvent Venue = "event"
)

// -----------------------------------------------------------------------------
// Order Book
// -----------------------------------------------------------------------------

// BookLevel is a single price level of an order book snapshot.
// Price and Size are nil together: a level the venue did not report
// has no price and no size, never a zero standing in for "missing".
type BookLevel struct {
	Price *float64
	Size  *float64
}

// Defined reports whether the level was present in the snapshot.
func (l BookLevel) Defined() bool {
	return l.Price != nil && l.Size != nil
}

// OrderBookSnapshot is one immutable observation of a market's book,
// up to 3 levels per side, appended once by the collector and never mutated.
type OrderBookSnapshot struct {
	Timestamp time.Time
	MarketID  string
	Outcome   string
	Venue     Venue

	Bids [3]BookLevel
	Asks [3]BookLevel

	MidPrice *float64
	Spread   *float64

	TotalBidVolume float64
	TotalAskVolume float64
}

// BestBid returns the top-of-book bid level.
func (s *OrderBookSnapshot) BestBid() BookLevel { return s.Bids[0] }

// BestAsk returns the top-of-book ask level.
func (s *OrderBookSnapshot) BestAsk() BookLevel { return s.Asks[0] }

// -----------------------------------------------------------------------------
// Features
// -----------------------------------------------------------------------------

// FeatureRecord holds the microstructure signals derived from one snapshot.
// One record per (timestamp, market_id, outcome). All values are rounded to
// 6 decimal digits before storage.
type FeatureRecord struct {
	Timestamp time.Time
	MarketID  string
	Outcome   string

	OFI              float64 // order flow imbalance (ofi_1s column)
	VAMP             float64 // volume-adjusted mid price
	MicroPrice       float64 // depth-weighted price over top 3 levels
	DepthRatio       float64
	SpreadVolatility float64

	// Recursive EMA of OFI at the three configured smoothing factors,
	// ascending by alpha (columns ofi_ema_01/03/05).
	OFIEMA01 float64
	OFIEMA03 float64
	OFIEMA05 float64

	// Schema placeholders: no independent signal, persisted so the
	// downstream model's feature ordering stays stable.
	OFI5s           float64
	OFI15s          float64
	OFI60s          float64
	OBIWeighted     float64
	KyleLambda      float64
	PINScore        float64
	VolumeImbalance float64
}

// -----------------------------------------------------------------------------
// Cross-Venue Linkage
// -----------------------------------------------------------------------------

// GameKey is the venue-independent identity of a game: calendar date plus
// an unordered pair of canonical 3-letter team codes. Two markets link iff
// their keys are equal.
type GameKey struct {
	Date  string // ISO date, YYYY-MM-DD
	TeamA string // lexicographically smaller code
	TeamB string // lexicographically larger code
}

// NewGameKey builds a key with the team pair in canonical order, so the key
// is identical regardless of which side was listed first in the title.
func NewGameKey(date time.Time, team1, team2 string) GameKey {
	codes := []string{team1, team2}
	sort.Strings(codes)
	return GameKey{
		Date:  date.Format("2006-01-02"),
		TeamA: codes[0],
		TeamB: codes[1],
	}
}

// String renders the key in the canonical "date|teamA|teamB" form used by
// the linkage table.
func (k GameKey) String() string {
	return k.Date + "|" + k.TeamA + "|" + k.TeamB
}

// MarketLinkage maps one venue's market to its canonical game key.
type MarketLinkage struct {
	MarketID  string
	Venue     Venue
	Key       GameKey
	Title     string // original title kept for auditing
	CreatedAt time.Time
}

// -----------------------------------------------------------------------------
// Alignment
// -----------------------------------------------------------------------------

// ShadowFeatures carries the shadow-venue observation attached to a primary
// row by the backward-looking alignment join, plus the derived cross-venue
// signals. The fields are only meaningful together, which is why the aligned
// row holds them behind one nilable pointer.
type ShadowFeatures struct {
	Timestamp  time.Time
	MicroPrice float64 // k_micro_price
	VAMP       float64 // k_vamp
	OFI        float64 // k_ofi (shadow ofi_ema_05)
	Volatility float64 // k_volatility (shadow spread_volatility)

	ArbSpread   float64 // primary micro_price - shadow micro_price
	FeedLatency float64 // primary ts - shadow ts, seconds, >= 0
}

// AlignedRow is a primary-venue feature record optionally augmented with the
// freshest not-later shadow-venue record inside the staleness tolerance.
// Shadow is nil when no linkage exists or every candidate was too stale.
type AlignedRow struct {
	FeatureRecord
	Shadow *ShadowFeatures
}
