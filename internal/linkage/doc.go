// Package linkage resolves venue-specific market titles and identifiers into
// canonical game keys so the same game can be found on both venues.
//
// A key is (ISO date, unordered pair of 3-letter team codes). Extraction is
// lenient: any title or identifier that cannot be parsed yields "no linkage"
// and the market is simply excluded from cross-venue features, never an
// error.
//
// Matching is exact on the key. There is no fuzzy date window, so
// back-to-back tournament days with the same team pair are a known
// false-negative risk.
package linkage
