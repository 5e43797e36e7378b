// Package loader bulk-loads enriched records into the relational sink:
// reference tables for categories and grades, plus parent/child product rows.
package loader

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/foodpipe/foodpipe/internal/classify"
	"github.com/foodpipe/foodpipe/internal/model"
)

// Loader writes enriched records into the relational store. Each Load call is
// one all-or-nothing transaction.
type Loader struct {
	db *sql.DB
}

// Result reports how many records a Load call saw and inserted.
type Result struct {
	TotalProcessed int `json:"total_processed"`
	TotalInserted  int `json:"total_inserted"`
}

// Open opens the sink database with foreign keys enforced.
func Open(dsn string) (*Loader, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "loader: open")
	}
	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "loader: exec %s", pragma)
		}
	}
	return &Loader{db: db}, nil
}

// New wraps an existing database handle.
func New(db *sql.DB) *Loader {
	return &Loader{db: db}
}

func (l *Loader) Close() error {
	return l.db.Close()
}

// Column-level contract shared with downstream consumers; names must not
// change.
const sinkMigration = `
CREATE TABLE IF NOT EXISTS categories (
	id       INTEGER PRIMARY KEY,
	category TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS nutriscore (
	id         INTEGER PRIMARY KEY,
	nutriscore TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS ecoscore (
	id       INTEGER PRIMARY KEY,
	ecoscore TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS enriched_products (
	id             TEXT PRIMARY KEY,
	raw_product_id TEXT NOT NULL,
	enriched_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS enriched_value (
	enriched_products_id TEXT NOT NULL REFERENCES enriched_products(id),
	products_name        TEXT,
	categories_id        INTEGER REFERENCES categories(id),
	countries            TEXT,
	ecoscore_id          INTEGER REFERENCES ecoscore(id),
	nutriscore_id        INTEGER REFERENCES nutriscore(id),
	image_url            TEXT,
	code                 TEXT
);

CREATE INDEX IF NOT EXISTS idx_enriched_value_parent ON enriched_value(enriched_products_id);
CREATE INDEX IF NOT EXISTS idx_enriched_value_code ON enriched_value(code);
`

// Migrate creates the sink schema if absent.
func (l *Loader) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, sinkMigration)
	return eris.Wrap(err, "loader: migrate")
}

// Seed fills the reference tables: 10 category labels at ids 1-10 and the
// grade letters a-e at ids 1-5 for both enumerations. Insert-if-absent, so
// repeated seeding is a no-op.
func (l *Loader) Seed(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "loader: seed begin tx")
	}
	defer tx.Rollback()

	for i := 1; i <= classify.CategoryCount(); i++ {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (id, category) VALUES (?, ?)`,
			i, classify.CategoryName(i),
		); err != nil {
			return eris.Wrapf(err, "loader: seed category %d", i)
		}
	}

	for i, g := range model.Grades {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO nutriscore (id, nutriscore) VALUES (?, ?)`,
			i+1, string(g),
		); err != nil {
			return eris.Wrapf(err, "loader: seed nutriscore %s", g)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO ecoscore (id, ecoscore) VALUES (?, ?)`,
			i+1, string(g),
		); err != nil {
			return eris.Wrapf(err, "loader: seed ecoscore %s", g)
		}
	}

	return eris.Wrap(tx.Commit(), "loader: seed commit")
}

// gradeID maps a grade letter to its reference-table id, or nil for anything
// unmappable so the row stores a null foreign key instead of failing.
func gradeID(g model.Grade) any {
	parsed, ok := model.ParseGrade(string(g))
	if !ok {
		return nil
	}
	for i, grade := range model.Grades {
		if grade == parsed {
			return i + 1
		}
	}
	return nil
}

// Load seeds the reference tables, then inserts one parent and one child row
// per record inside a single transaction. Any failure rolls the whole batch
// back and surfaces as an error with TotalInserted left at zero.
func (l *Loader) Load(ctx context.Context, records []model.EnrichedRecord) (Result, error) {
	res := Result{TotalProcessed: len(records)}

	if err := l.Seed(ctx); err != nil {
		return res, err
	}
	if len(records) == 0 {
		return res, nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return res, eris.Wrap(err, "loader: begin tx")
	}
	defer tx.Rollback()

	insertProduct, err := tx.PrepareContext(ctx,
		`INSERT INTO enriched_products (id, raw_product_id, enriched_at) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return res, eris.Wrap(err, "loader: prepare parent insert")
	}
	defer insertProduct.Close()

	insertValue, err := tx.PrepareContext(ctx,
		`INSERT INTO enriched_value (
			enriched_products_id, products_name, categories_id, countries,
			ecoscore_id, nutriscore_id, image_url, code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return res, eris.Wrap(err, "loader: prepare child insert")
	}
	defer insertValue.Close()

	inserted := 0
	for _, rec := range records {
		parentID := uuid.New().String()

		rawRef := rec.RawProductID
		if rawRef == "" {
			rawRef = rec.ID
		}

		enrichedAt := rec.EnrichedAt
		if enrichedAt.IsZero() {
			enrichedAt = time.Now().UTC()
		}

		if _, err := insertProduct.ExecContext(ctx,
			parentID, rawRef, enrichedAt.Format(time.RFC3339),
		); err != nil {
			return res, eris.Wrapf(err, "loader: insert parent for %s", rawRef)
		}

		v := rec.Value
		name := v.ProductName
		if name == "" {
			name = "Inconnu"
		}
		countries := v.Countries
		if countries == "" {
			countries = "NC"
		}
		code := v.Code
		if code == "" {
			code = "N/A"
		}
		var imageURL any
		if v.ImageURL != "" {
			imageURL = v.ImageURL
		}

		if _, err := insertValue.ExecContext(ctx,
			parentID,
			name,
			classify.CategoryID(v.Categories),
			countries,
			gradeID(v.EcoScore),
			gradeID(v.Nutriscore),
			imageURL,
			code,
		); err != nil {
			return res, eris.Wrapf(err, "loader: insert value for %s", rawRef)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return res, eris.Wrap(err, "loader: commit")
	}
	res.TotalInserted = inserted

	zap.L().Info("loader: batch committed",
		zap.Int("processed", res.TotalProcessed),
		zap.Int("inserted", res.TotalInserted),
	)
	return res, nil
}
