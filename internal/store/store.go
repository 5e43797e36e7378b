// Package store persists raw catalog records and intermediate enriched
// records, with Postgres and SQLite backends selected by configuration.
package store

import (
	"context"

	"github.com/foodpipe/foodpipe/internal/model"
)

// Store defines the staging persistence interface for the pipeline.
type Store interface {
	// Raw products
	// InsertRaw stores a fetched record, deduplicating on its payload hash.
	// It reports whether a row was actually inserted.
	InsertRaw(ctx context.Context, rec model.SourceRecord) (bool, error)
	// ListRawPage returns one page of raw records in arrival order,
	// 1-based page. A short page signals exhaustion.
	ListRawPage(ctx context.Context, page, pageSize int) ([]model.SourceRecord, error)

	// Enriched records
	ExistingEnrichedIDs(ctx context.Context, rawIDs []string) (map[string]bool, error)
	InsertEnriched(ctx context.Context, records []model.EnrichedRecord) (int, error)
	// ListEnriched returns all enriched records for relational loading.
	ListEnriched(ctx context.Context) ([]model.EnrichedRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
