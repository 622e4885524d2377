// Package model defines shared data types used across the market-signals pipeline.
//
// All types mirror the database schema (order_book_snapshots, market_linkages,
// microstructure_features, aligned_features).
//
// Conventions:
//   - Prices: float64 in venue-native units (prediction contracts: 0.0-1.0)
//   - Timestamps: time.Time in UTC
//   - Absent order-book levels: nil pointers, never zero-with-meaning
package model
