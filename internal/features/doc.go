// Package features implements the microstructure feature calculator.
//
// It converts an ordered sequence of order-book snapshots for a single
// market into one FeatureRecord per snapshot:
//   - OFI: normalized bid/ask volume skew
//   - decayed OFI: recursive EMA at three smoothing factors
//   - VAMP: volume-adjusted mid price from the top of book
//   - micro-price: depth-weighted price over the top 3 levels
//   - depth ratio and rolling spread volatility
//
// The calculator is a pure function of its input plus configuration. The one
// stateful computation is the OFI EMA, which carries across the whole input
// sequence and must run as a single left-to-right pass.
package features
