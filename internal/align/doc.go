// Package align joins a primary-venue feature stream with its linked
// shadow-venue stream in time.
//
// The join is backward-only: each primary row picks up the most recent
// shadow row at or before its timestamp, provided that row is no older than
// the staleness tolerance. The merge is a monotonic two-pointer pass, O(n+m)
// per market pair; the shadow cursor never moves backward.
package align
