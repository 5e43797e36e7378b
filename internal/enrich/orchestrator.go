package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/foodpipe/foodpipe/internal/model"
)

// DefaultBatchSize is the page size used when the caller does not supply a
// positive one.
const DefaultBatchSize = 100

// RawReader pages through raw records in arrival order. A short page signals
// exhaustion.
type RawReader interface {
	ListRawPage(ctx context.Context, page, pageSize int) ([]model.SourceRecord, error)
}

// EnrichedWriter is the intermediate enriched-record store.
type EnrichedWriter interface {
	// ExistingEnrichedIDs reports which of the given raw ids already have an
	// enriched record.
	ExistingEnrichedIDs(ctx context.Context, rawIDs []string) (map[string]bool, error)
	// InsertEnriched appends records and returns the number inserted.
	InsertEnriched(ctx context.Context, records []model.EnrichedRecord) (int, error)
}

// Result accumulates totals across a full enrichment run.
type Result struct {
	TotalRawProcessed     int `json:"total_raw_processed"`
	TotalEnrichedInserted int `json:"total_enriched_inserted"`
	Batches               int `json:"batches"`
}

// Orchestrator pulls unprocessed raw records in batches, enriches them and
// persists the results. It is sequential; two concurrent runs against the
// same store can double-insert and need an external lock.
type Orchestrator struct {
	raw       RawReader
	enriched  EnrichedWriter
	batchSize int
}

// NewOrchestrator builds an orchestrator. A non-positive batchSize falls back
// to DefaultBatchSize.
func NewOrchestrator(raw RawReader, enriched EnrichedWriter, batchSize int) *Orchestrator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Orchestrator{raw: raw, enriched: enriched, batchSize: batchSize}
}

// Run drives page-ascending batches until the source is exhausted. Every
// fetch counts as a batch, including the empty one that detects exhaustion
// after a full final page. Collaborator failures halt the run; batches
// already persisted stay committed, and the partial totals are returned
// alongside the error.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	var res Result

	for page := 1; ; page++ {
		batch, err := o.raw.ListRawPage(ctx, page, o.batchSize)
		if err != nil {
			return res, eris.Wrapf(err, "enrich: list raw page %d", page)
		}

		res.Batches++
		if len(batch) == 0 {
			break
		}

		res.TotalRawProcessed += len(batch)

		inserted, err := o.processBatch(ctx, batch)
		res.TotalEnrichedInserted += inserted
		if err != nil {
			return res, eris.Wrapf(err, "enrich: batch %d", res.Batches)
		}

		zap.L().Info("enrich: batch complete",
			zap.Int("batch", res.Batches),
			zap.Int("raw", len(batch)),
			zap.Int("inserted", inserted),
		)

		if len(batch) < o.batchSize {
			break
		}
	}

	return res, nil
}

func (o *Orchestrator) processBatch(ctx context.Context, batch []model.SourceRecord) (int, error) {
	ids := make([]string, len(batch))
	for i, r := range batch {
		ids[i] = r.ID
	}

	existing, err := o.enriched.ExistingEnrichedIDs(ctx, ids)
	if err != nil {
		return 0, eris.Wrap(err, "check existing")
	}

	records := make([]model.EnrichedRecord, 0, len(batch))
	for _, raw := range batch {
		if existing[raw.ID] {
			continue
		}
		records = append(records, Enrich(raw))
	}
	if len(records) == 0 {
		return 0, nil
	}

	inserted, err := o.enriched.InsertEnriched(ctx, records)
	if err != nil {
		return inserted, eris.Wrap(err, "insert enriched")
	}
	return inserted, nil
}
