package loader

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// ItemPageSize is the fixed page size for item listings.
const ItemPageSize = 20

// Item is one joined row from the sink, reference ids resolved to labels.
type Item struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	EnrichedAt  string `json:"enriched_at"`
	ProductName string `json:"products_name"`
	Countries   string `json:"countries"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"categories"`
	Nutriscore  string `json:"nutriscore"`
	EcoScore    string `json:"ecoscore"`
}

// ItemFilter narrows an item listing.
type ItemFilter struct {
	Page       int    // 1-based
	Nutriscore string // exact grade letter
	Search     string // substring over name or code
}

// ItemPage is one page of items plus the unpaged total.
type ItemPage struct {
	Items    []Item `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// ListItems returns a page of loaded products ordered by enrichment time
// descending, optionally filtered by nutriscore letter or a name/code search.
func (l *Loader) ListItems(ctx context.Context, filter ItemFilter) (*ItemPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * ItemPageSize

	var where []string
	var args []any
	if filter.Nutriscore != "" {
		where = append(where, "n.nutriscore = ?")
		args = append(args, strings.ToLower(filter.Nutriscore))
	}
	if filter.Search != "" {
		where = append(where, "(v.products_name LIKE ? OR v.code LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	const joins = `
		FROM enriched_products p
		JOIN enriched_value v ON p.id = v.enriched_products_id
		LEFT JOIN categories c ON v.categories_id = c.id
		LEFT JOIN nutriscore n ON v.nutriscore_id = n.id
		LEFT JOIN ecoscore e ON v.ecoscore_id = e.id
	`

	rows, err := l.db.QueryContext(ctx,
		`SELECT p.id, v.code, p.enriched_at, v.products_name, v.countries, v.image_url,
			COALESCE(c.category, ''), COALESCE(n.nutriscore, ''), COALESCE(e.ecoscore, '')`+
			joins+whereSQL+` ORDER BY p.enriched_at DESC LIMIT ? OFFSET ?`,
		append(append([]any{}, args...), ItemPageSize, offset)...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "loader: list items")
	}
	defer rows.Close()

	result := &ItemPage{Page: page, PageSize: ItemPageSize}
	for rows.Next() {
		var it Item
		var name, countries, image sql.NullString
		if err := rows.Scan(&it.ID, &it.Code, &it.EnrichedAt, &name, &countries, &image,
			&it.Category, &it.Nutriscore, &it.EcoScore); err != nil {
			return nil, eris.Wrap(err, "loader: scan item")
		}
		it.ProductName = name.String
		it.Countries = countries.String
		it.ImageURL = image.String
		result.Items = append(result.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "loader: list items iterate")
	}

	err = l.db.QueryRowContext(ctx,
		`SELECT COUNT(*)`+joins+whereSQL, args...,
	).Scan(&result.Total)
	if err != nil {
		return nil, eris.Wrap(err, "loader: count items")
	}

	return result, nil
}

// Stats summarizes the sink: total products and per-letter grade counts.
type Stats struct {
	TotalItems   int            `json:"total_items"`
	ByNutriscore map[string]int `json:"by_nutriscore"`
	ByEcoScore   map[string]int `json:"by_ecoscore"`
}

// Stats runs the three aggregates concurrently.
func (l *Loader) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enriched_products`).Scan(&stats.TotalItems)
		return eris.Wrap(err, "loader: count products")
	})
	g.Go(func() error {
		counts, err := l.gradeCounts(ctx, `SELECT COALESCE(n.nutriscore, 'unknown'), COUNT(*)
			FROM enriched_value v LEFT JOIN nutriscore n ON v.nutriscore_id = n.id
			GROUP BY n.nutriscore`)
		stats.ByNutriscore = counts
		return err
	})
	g.Go(func() error {
		counts, err := l.gradeCounts(ctx, `SELECT COALESCE(e.ecoscore, 'unknown'), COUNT(*)
			FROM enriched_value v LEFT JOIN ecoscore e ON v.ecoscore_id = e.id
			GROUP BY e.ecoscore`)
		stats.ByEcoScore = counts
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (l *Loader) gradeCounts(ctx context.Context, query string) (map[string]int, error) {
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "loader: grade counts")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var letter string
		var n int
		if err := rows.Scan(&letter, &n); err != nil {
			return nil, eris.Wrap(err, "loader: scan grade count")
		}
		counts[letter] = n
	}
	return counts, eris.Wrap(rows.Err(), "loader: grade counts iterate")
}
