// Package store implements the database collaborators around the core
// computation: the snapshot reader, the linkage table, and the feature and
// aligned-feature writers.
//
// Writers batch with pgx.Batch and upsert on the (timestamp, market_id,
// outcome) identity, so re-running a batch job overwrites rather than
// duplicates. All reads return rows ordered ascending by timestamp, the
// ordering the calculator and aligner require.
package store
