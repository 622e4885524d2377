// Package pipeline runs the offline batch jobs: feature recomputation,
// cross-venue alignment, and linkage backfill.
//
// Each job fans out across markets with bounded concurrency while keeping
// every within-market pass strictly sequential by timestamp. Computed rows
// flow through a growable buffer to a single drainer that writes batches
// with retry and backoff. One market failing is counted and logged, never
// fatal to the rest of the run.
package pipeline
