package features

import (
	"fmt"
	"math"

	"github.com/hueyfreemancodes/market-signals/internal/model"
)

// Depth ratio fallbacks for one-sided and empty books. The 10x cap encodes
// the one-sided-book convention: bids with no asks reads as 10:1, not +Inf.
const (
	oneSidedDepthRatio = 10.0
	emptyDepthRatio    = 1.0
)

// Config holds calculator parameters.
type Config struct {
	// WindowSize is the trailing window (in snapshots) for spread volatility.
	WindowSize int

	// EMAAlphas are the OFI smoothing factors, ascending, each in (0, 1].
	// Exactly three are required; they populate the ofi_ema_01/03/05 slots
	// in order.
	EMAAlphas []float64
}

// DefaultConfig returns the production parameters.
func DefaultConfig() Config {
	return Config{
		WindowSize: 20,
		EMAAlphas:  []float64{0.1, 0.3, 0.5},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.WindowSize < 1 {
		return fmt.Errorf("window_size must be >= 1, got %d", c.WindowSize)
	}
	if len(c.EMAAlphas) != 3 {
		return fmt.Errorf("ema_alphas must have exactly 3 entries, got %d", len(c.EMAAlphas))
	}
	prev := 0.0
	for _, a := range c.EMAAlphas {
		if a <= 0 || a > 1 {
			return fmt.Errorf("ema_alphas entries must be in (0, 1], got %v", a)
		}
		if a <= prev {
			return fmt.Errorf("ema_alphas must be strictly ascending, got %v", c.EMAAlphas)
		}
		prev = a
	}
	return nil
}

// Calculator derives microstructure features from snapshot sequences.
// It holds no per-market state; every call is independent.
type Calculator struct {
	cfg Config
}

// NewCalculator validates cfg and returns a calculator.
func NewCalculator(cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calculator config: %w", err)
	}
	return &Calculator{cfg: cfg}, nil
}

// Calculate produces one feature record per input snapshot.
//
// Snapshots must be ordered ascending by timestamp; a timestamp regression
// returns an error because the EMA series would be silently wrong otherwise.
// An empty input yields an empty output, not an error.
func (c *Calculator) Calculate(snaps []model.OrderBookSnapshot) ([]model.FeatureRecord, error) {
	if len(snaps) == 0 {
		return nil, nil
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Timestamp.Before(snaps[i-1].Timestamp) {
			return nil, fmt.Errorf("snapshots out of order at index %d: %s before %s",
				i, snaps[i].Timestamp.Format("2006-01-02T15:04:05.999999Z07:00"),
				snaps[i-1].Timestamp.Format("2006-01-02T15:04:05.999999Z07:00"))
		}
	}

	ofi := ofiSeries(snaps)
	emas := [3][]float64{
		decayedSeries(ofi, c.cfg.EMAAlphas[0]),
		decayedSeries(ofi, c.cfg.EMAAlphas[1]),
		decayedSeries(ofi, c.cfg.EMAAlphas[2]),
	}
	spreadVol := rollingStd(spreadSeries(snaps), c.cfg.WindowSize)

	records := make([]model.FeatureRecord, len(snaps))
	for i := range snaps {
		s := &snaps[i]
		rawOFI := Round6(ofi[i])
		records[i] = model.FeatureRecord{
			Timestamp: s.Timestamp,
			MarketID:  s.MarketID,
			Outcome:   s.Outcome,

			OFI:              rawOFI,
			VAMP:             Round6(vamp(s)),
			MicroPrice:       Round6(microPrice(s)),
			DepthRatio:       Round6(depthRatio(s)),
			SpreadVolatility: Round6(spreadVol[i]),

			OFIEMA01: Round6(emas[0][i]),
			OFIEMA03: Round6(emas[1][i]),
			OFIEMA05: Round6(emas[2][i]),

			// Placeholder columns carry the raw OFI (or zero) so the
			// persisted schema stays fully populated.
			OFI5s:           rawOFI,
			OFI15s:          rawOFI,
			OFI60s:          rawOFI,
			OBIWeighted:     0.0,
			KyleLambda:      0.0,
			PINScore:        0.0,
			VolumeImbalance: 0.0,
		}
	}
	return records, nil
}

// ofiSeries computes (bid_vol - ask_vol) / (bid_vol + ask_vol) per snapshot,
// 0.0 when the book is empty on both sides.
func ofiSeries(snaps []model.OrderBookSnapshot) []float64 {
	out := make([]float64, len(snaps))
	for i := range snaps {
		bid := snaps[i].TotalBidVolume
		ask := snaps[i].TotalAskVolume
		if total := bid + ask; total > 0 {
			out[i] = (bid - ask) / total
		}
	}
	return out
}

// decayedSeries applies recursive exponential smoothing to vals.
// The state starts at zero, so ema[0] = alpha * vals[0]. Strictly sequential.
func decayedSeries(vals []float64, alpha float64) []float64 {
	out := make([]float64, len(vals))
	curr := 0.0
	for i, v := range vals {
		curr = alpha*v + (1-alpha)*curr
		out[i] = curr
	}
	return out
}

// vamp computes the volume-adjusted mid price: the top-of-book prices
// weighted by the opposite side's volume. Falls back to the stored mid
// price, then 0.0.
func vamp(s *model.OrderBookSnapshot) float64 {
	bid := s.BestBid()
	ask := s.BestAsk()
	total := s.TotalBidVolume + s.TotalAskVolume
	if bid.Price != nil && ask.Price != nil && total > 0 {
		return (*bid.Price*s.TotalAskVolume + *ask.Price*s.TotalBidVolume) / total
	}
	if s.MidPrice != nil {
		return *s.MidPrice
	}
	return 0.0
}

// microPrice computes the depth-weighted average price over all defined
// levels on both sides. Falls back to the stored mid price, then 0.0, when
// the book carries no weighted volume.
func microPrice(s *model.OrderBookSnapshot) float64 {
	var weighted, volume float64
	for i := 0; i < 3; i++ {
		if l := s.Bids[i]; l.Defined() {
			weighted += *l.Price * *l.Size
			volume += *l.Size
		}
		if l := s.Asks[i]; l.Defined() {
			weighted += *l.Price * *l.Size
			volume += *l.Size
		}
	}
	if volume > 0 {
		return weighted / volume
	}
	if s.MidPrice != nil {
		return *s.MidPrice
	}
	return 0.0
}

// depthRatio computes bid volume over ask volume with the one-sided-book
// fallbacks: 10.0 when only bids exist, 1.0 when the book is empty.
func depthRatio(s *model.OrderBookSnapshot) float64 {
	if s.TotalAskVolume > 0 {
		return s.TotalBidVolume / s.TotalAskVolume
	}
	if s.TotalBidVolume > 0 {
		return oneSidedDepthRatio
	}
	return emptyDepthRatio
}

// spreadSeries extracts the top-of-book spread per snapshot, preferring the
// live ask-bid difference and falling back to the stored spread column.
func spreadSeries(snaps []model.OrderBookSnapshot) []float64 {
	out := make([]float64, len(snaps))
	for i := range snaps {
		bid := snaps[i].BestBid()
		ask := snaps[i].BestAsk()
		switch {
		case bid.Price != nil && ask.Price != nil:
			out[i] = *ask.Price - *bid.Price
		case snaps[i].Spread != nil:
			out[i] = *snaps[i].Spread
		}
	}
	return out
}

// Round6 rounds v to 6 decimal digits, the precision of the feature store.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
