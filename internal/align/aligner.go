package align

import (
	"fmt"
	"time"

	"github.com/hueyfreemancodes/market-signals/internal/features"
	"github.com/hueyfreemancodes/market-signals/internal/model"
)

// DefaultStalenessTolerance bounds how old a shadow observation may be and
// still attach to a primary row.
const DefaultStalenessTolerance = 5 * time.Minute

// Aligner performs the backward-looking cross-venue join.
type Aligner struct {
	tolerance time.Duration
}

// New creates an Aligner. tolerance must be positive.
func New(tolerance time.Duration) (*Aligner, error) {
	if tolerance <= 0 {
		return nil, fmt.Errorf("staleness tolerance must be positive, got %v", tolerance)
	}
	return &Aligner{tolerance: tolerance}, nil
}

// Align emits one row per primary record, attaching the freshest shadow
// record with shadow.ts <= primary.ts and primary.ts - shadow.ts <= the
// tolerance. Rows with no qualifying shadow record get a nil Shadow; they
// are still emitted. Both inputs must be sorted ascending by timestamp
// (the feature store returns them that way).
//
// An empty or nil shadow slice degrades every row to shadow-less, matching
// the unlinked-market case.
func (a *Aligner) Align(primary, shadow []model.FeatureRecord) []model.AlignedRow {
	if len(primary) == 0 {
		return nil
	}

	rows := make([]model.AlignedRow, len(primary))
	cursor := -1 // index of the last shadow record at or before the current primary ts

	for i := range primary {
		p := &primary[i]

		// Advance, never regress: primary timestamps only grow.
		for cursor+1 < len(shadow) && !shadow[cursor+1].Timestamp.After(p.Timestamp) {
			cursor++
		}

		rows[i] = model.AlignedRow{FeatureRecord: *p}

		if cursor < 0 {
			continue
		}
		s := &shadow[cursor]
		age := p.Timestamp.Sub(s.Timestamp)
		if age > a.tolerance {
			// Stale observation: worse than no observation.
			continue
		}

		rows[i].Shadow = &model.ShadowFeatures{
			Timestamp:   s.Timestamp,
			MicroPrice:  s.MicroPrice,
			VAMP:        s.VAMP,
			OFI:         s.OFIEMA05,
			Volatility:  s.SpreadVolatility,
			ArbSpread:   features.Round6(p.MicroPrice - s.MicroPrice),
			FeedLatency: age.Seconds(),
		}
	}

	return rows
}
