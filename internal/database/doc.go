// Package database constructs pgx connection pools for the time-series
// store holding snapshots, linkages, and feature tables.
package database
