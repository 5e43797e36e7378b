package loader

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodpipe/foodpipe/internal/model"
)

// loadFixture inserts a small catalog with known grades and timestamps.
func loadFixture(t *testing.T, l *Loader) {
	t.Helper()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []model.EnrichedRecord{
		{
			RawProductID: "raw-1",
			EnrichedAt:   base,
			Value: model.EnrichedValue{
				ProductName: "Jus d'orange", Categories: "Beverages", Code: "1001",
				Nutriscore: model.GradeA, EcoScore: model.GradeB,
			},
		},
		{
			RawProductID: "raw-2",
			EnrichedAt:   base.Add(time.Hour),
			Value: model.EnrichedValue{
				ProductName: "Camembert", Categories: "Cheese", Code: "1002",
				Nutriscore: model.GradeD, EcoScore: model.GradeD,
			},
		},
		{
			RawProductID: "raw-3",
			EnrichedAt:   base.Add(2 * time.Hour),
			Value: model.EnrichedValue{
				ProductName: "Chips paprika", Categories: "Chips", Code: "2001",
				Nutriscore: model.GradeD, EcoScore: model.Grade("unknown"),
			},
		},
	}
	_, err := l.Load(context.Background(), records)
	require.NoError(t, err)
}

func TestListItems_NoFilter(t *testing.T) {
	l := newTestLoader(t)
	loadFixture(t, l)

	page, err := l.ListItems(context.Background(), ItemFilter{})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, ItemPageSize, page.PageSize)
	require.Len(t, page.Items, 3)

	// Newest first.
	assert.Equal(t, "Chips paprika", page.Items[0].ProductName)
	assert.Equal(t, "Jus d'orange", page.Items[2].ProductName)

	// Reference ids resolve to labels, unmappable grades come back empty.
	assert.Equal(t, "Boissons", page.Items[2].Category)
	assert.Equal(t, "a", page.Items[2].Nutriscore)
	assert.Equal(t, "b", page.Items[2].EcoScore)
	assert.Equal(t, "", page.Items[0].EcoScore)
}

func TestListItems_NutriscoreFilterNormalizesCase(t *testing.T) {
	l := newTestLoader(t)
	loadFixture(t, l)

	page, err := l.ListItems(context.Background(), ItemFilter{Nutriscore: "D"})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	for _, it := range page.Items {
		assert.Equal(t, "d", it.Nutriscore)
	}
}

func TestListItems_SearchMatchesNameOrCode(t *testing.T) {
	l := newTestLoader(t)
	loadFixture(t, l)

	byName, err := l.ListItems(context.Background(), ItemFilter{Search: "Camem"})
	require.NoError(t, err)
	require.Len(t, byName.Items, 1)
	assert.Equal(t, "1002", byName.Items[0].Code)

	byCode, err := l.ListItems(context.Background(), ItemFilter{Search: "200"})
	require.NoError(t, err)
	require.Len(t, byCode.Items, 1)
	assert.Equal(t, "Chips paprika", byCode.Items[0].ProductName)

	none, err := l.ListItems(context.Background(), ItemFilter{Search: "nothing-here"})
	require.NoError(t, err)
	assert.Empty(t, none.Items)
	assert.Equal(t, 0, none.Total)
}

func TestListItems_Pagination(t *testing.T) {
	l := newTestLoader(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	records := make([]model.EnrichedRecord, 25)
	for i := range records {
		records[i] = model.EnrichedRecord{
			RawProductID: fmt.Sprintf("raw-%02d", i),
			EnrichedAt:   base.Add(time.Duration(i) * time.Minute),
			Value:        model.EnrichedValue{Code: fmt.Sprintf("code-%02d", i)},
		}
	}
	_, err := l.Load(context.Background(), records)
	require.NoError(t, err)

	page1, err := l.ListItems(context.Background(), ItemFilter{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 25, page1.Total)
	assert.Len(t, page1.Items, ItemPageSize)
	assert.Equal(t, "code-24", page1.Items[0].Code, "descending by enrichment time")

	page2, err := l.ListItems(context.Background(), ItemFilter{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page2.Items, 5)
	assert.Equal(t, "code-00", page2.Items[4].Code)

	// Out-of-range pages are empty but keep the total.
	page3, err := l.ListItems(context.Background(), ItemFilter{Page: 3})
	require.NoError(t, err)
	assert.Empty(t, page3.Items)
	assert.Equal(t, 25, page3.Total)

	// Non-positive pages clamp to the first.
	page0, err := l.ListItems(context.Background(), ItemFilter{Page: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page0.Page)
	assert.Len(t, page0.Items, ItemPageSize)
}

func TestStats(t *testing.T) {
	l := newTestLoader(t)
	loadFixture(t, l)

	stats, err := l.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, map[string]int{"a": 1, "d": 2}, stats.ByNutriscore)
	assert.Equal(t, map[string]int{"b": 1, "d": 1, "unknown": 1}, stats.ByEcoScore)
}

func TestStats_EmptySink(t *testing.T) {
	l := newTestLoader(t)
	require.NoError(t, l.Seed(context.Background()))

	stats, err := l.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalItems)
	assert.Empty(t, stats.ByNutriscore)
	assert.Empty(t, stats.ByEcoScore)
}
