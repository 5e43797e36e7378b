package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodpipe/foodpipe/internal/model"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "sink.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	require.NoError(t, l.Migrate(context.Background()))
	return l
}

func countRows(t *testing.T, l *Loader, table string) int {
	t.Helper()
	var n int
	require.NoError(t, l.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestLoader_SeedIsIdempotent(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()

	require.NoError(t, l.Seed(ctx))
	require.NoError(t, l.Seed(ctx))

	assert.Equal(t, 10, countRows(t, l, "categories"))
	assert.Equal(t, 5, countRows(t, l, "nutriscore"))
	assert.Equal(t, 5, countRows(t, l, "ecoscore"))

	var label string
	require.NoError(t, l.db.QueryRow(`SELECT category FROM categories WHERE id = 8`).Scan(&label))
	assert.Equal(t, "Épicerie & Sauces", label)
	require.NoError(t, l.db.QueryRow(`SELECT nutriscore FROM nutriscore WHERE id = 1`).Scan(&label))
	assert.Equal(t, "a", label)
	require.NoError(t, l.db.QueryRow(`SELECT ecoscore FROM ecoscore WHERE id = 5`).Scan(&label))
	assert.Equal(t, "e", label)
}

func TestLoader_Load_RoundTrip(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()

	enrichedAt := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
	res, err := l.Load(ctx, []model.EnrichedRecord{
		{
			ID:           "e1",
			RawProductID: "raw-1",
			Status:       true,
			EnrichedAt:   enrichedAt,
			Value: model.EnrichedValue{
				ProductName: "Moutarde bio",
				Categories:  "Bio",
				Countries:   "France",
				Code:        "3017620422003",
				ImageURL:    "https://images.example/moutarde.jpg",
				Nutriscore:  model.GradeA,
				EcoScore:    model.GradeB,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Result{TotalProcessed: 1, TotalInserted: 1}, res)

	var (
		rawRef, stamp, name, countries, image, code string
		categoryID, ecoID, nutriID                  int
	)
	row := l.db.QueryRow(`
		SELECT p.raw_product_id, p.enriched_at, v.products_name, v.categories_id,
			v.countries, v.ecoscore_id, v.nutriscore_id, v.image_url, v.code
		FROM enriched_products p JOIN enriched_value v ON p.id = v.enriched_products_id
		WHERE v.code = ?`, "3017620422003")
	require.NoError(t, row.Scan(&rawRef, &stamp, &name, &categoryID, &countries, &ecoID, &nutriID, &image, &code))

	assert.Equal(t, "raw-1", rawRef)
	assert.Equal(t, enrichedAt.Format(time.RFC3339), stamp)
	assert.Equal(t, "Moutarde bio", name)
	assert.Equal(t, 8, categoryID, "no keyword group claims bio, default bucket")
	assert.Equal(t, "France", countries)
	assert.Equal(t, 2, ecoID)
	assert.Equal(t, 1, nutriID)
	assert.Equal(t, "https://images.example/moutarde.jpg", image)
}

func TestLoader_Load_DefaultsForMissingFields(t *testing.T) {
	l := newTestLoader(t)

	res, err := l.Load(context.Background(), []model.EnrichedRecord{
		{ID: "e1", Value: model.EnrichedValue{Nutriscore: model.GradeC, EcoScore: model.GradeC}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalInserted)

	var (
		rawRef, name, countries, code string
		image                         any
	)
	row := l.db.QueryRow(`
		SELECT p.raw_product_id, v.products_name, v.countries, v.code, v.image_url
		FROM enriched_products p JOIN enriched_value v ON p.id = v.enriched_products_id`)
	require.NoError(t, row.Scan(&rawRef, &name, &countries, &code, &image))

	assert.Equal(t, "e1", rawRef, "record id stands in for a missing raw reference")
	assert.Equal(t, "Inconnu", name)
	assert.Equal(t, "NC", countries)
	assert.Equal(t, "N/A", code)
	assert.Nil(t, image)
}

func TestLoader_Load_UnmappableGradeStoresNullFK(t *testing.T) {
	l := newTestLoader(t)

	_, err := l.Load(context.Background(), []model.EnrichedRecord{
		{ID: "e1", Value: model.EnrichedValue{Nutriscore: model.Grade("not-applicable"), EcoScore: model.GradeD}},
	})
	require.NoError(t, err)

	var nutriID, ecoID any
	row := l.db.QueryRow(`SELECT nutriscore_id, ecoscore_id FROM enriched_value`)
	require.NoError(t, row.Scan(&nutriID, &ecoID))
	assert.Nil(t, nutriID)
	assert.EqualValues(t, 4, ecoID)
}

func TestLoader_Load_GeneratesUniqueParentIDs(t *testing.T) {
	l := newTestLoader(t)

	records := make([]model.EnrichedRecord, 200)
	for i := range records {
		records[i] = model.EnrichedRecord{
			RawProductID: fmt.Sprintf("raw-%03d", i),
			Value:        model.EnrichedValue{Code: fmt.Sprintf("code-%03d", i)},
		}
	}

	res, err := l.Load(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 200, res.TotalInserted)

	var distinct int
	require.NoError(t, l.db.QueryRow(`SELECT COUNT(DISTINCT id) FROM enriched_products`).Scan(&distinct))
	assert.Equal(t, 200, distinct)
	assert.Equal(t, 200, countRows(t, l, "enriched_value"))
}

func TestLoader_Load_EmptyBatchStillSeeds(t *testing.T) {
	l := newTestLoader(t)

	res, err := l.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 10, countRows(t, l, "categories"))
}

func TestLoader_Load_FailureRollsBackWholeBatch(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()

	// Force a mid-batch constraint failure on the second record.
	_, err := l.db.Exec(`CREATE UNIQUE INDEX one_per_code ON enriched_value(code)`)
	require.NoError(t, err)

	res, err := l.Load(ctx, []model.EnrichedRecord{
		{RawProductID: "raw-1", Value: model.EnrichedValue{Code: "dup"}},
		{RawProductID: "raw-2", Value: model.EnrichedValue{Code: "dup"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert value for raw-2")
	assert.Equal(t, 2, res.TotalProcessed)
	assert.Equal(t, 0, res.TotalInserted)

	// The first record must not survive the rollback.
	assert.Equal(t, 0, countRows(t, l, "enriched_products"))
	assert.Equal(t, 0, countRows(t, l, "enriched_value"))
}

func TestLoader_Load_RerunAppends(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()

	batch := []model.EnrichedRecord{{RawProductID: "raw-1", Value: model.EnrichedValue{Code: "c1"}}}

	for i := 1; i <= 2; i++ {
		res, err := l.Load(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 1, res.TotalInserted)
		assert.Equal(t, i, countRows(t, l, "enriched_products"))
	}
}
