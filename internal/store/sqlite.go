package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/foodpipe/foodpipe/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for single-machine
// runs without a Postgres instance.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS raw_products (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	raw_hash   TEXT NOT NULL UNIQUE,
	payload    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS enriched_records (
	id             TEXT PRIMARY KEY,
	raw_product_id TEXT NOT NULL,
	status         INTEGER NOT NULL,
	enriched_at    DATETIME NOT NULL,
	enriched_value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_raw_products_fetched_at ON raw_products(fetched_at);
CREATE INDEX IF NOT EXISTS idx_enriched_records_raw_id ON enriched_records(raw_product_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertRaw(ctx context.Context, rec model.SourceRecord) (bool, error) {
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}

	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: marshal payload")
	}

	fetchedAt := rec.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO raw_products (id, source, fetched_at, raw_hash, payload) VALUES (?, ?, ?, ?, ?)`,
		id, rec.Source, fetchedAt, rec.RawHash, string(payloadJSON),
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert raw")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListRawPage(ctx context.Context, page, pageSize int) ([]model.SourceRecord, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, fetched_at, raw_hash, payload FROM raw_products ORDER BY fetched_at, id LIMIT ? OFFSET ?`,
		pageSize, offset,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list raw page %d", page)
	}
	defer rows.Close()

	var records []model.SourceRecord
	for rows.Next() {
		var rec model.SourceRecord
		var payloadJSON string
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.FetchedAt, &rec.RawHash, &payloadJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan raw")
		}
		if err := json.Unmarshal([]byte(payloadJSON), &rec.Payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal payload")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list raw iterate")
}

func (s *SQLiteStore) ExistingEnrichedIDs(ctx context.Context, rawIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(rawIDs))
	if len(rawIDs) == 0 {
		return existing, nil
	}

	placeholders := strings.Repeat("?,", len(rawIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(rawIDs))
	for i, id := range rawIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT raw_product_id FROM enriched_records WHERE raw_product_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: existing enriched ids")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan enriched id")
		}
		existing[id] = true
	}
	return existing, eris.Wrap(rows.Err(), "sqlite: existing ids iterate")
}

func (s *SQLiteStore) InsertEnriched(ctx context.Context, records []model.EnrichedRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO enriched_records (id, raw_product_id, status, enriched_at, enriched_value) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert enriched")
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.New().String()
		}
		valueJSON, err := json.Marshal(rec.Value)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal enriched value")
		}
		if _, err := stmt.ExecContext(ctx, id, rec.RawProductID, rec.Status, rec.EnrichedAt, string(valueJSON)); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert enriched %s", rec.RawProductID)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit enriched")
	}
	return inserted, nil
}

func (s *SQLiteStore) ListEnriched(ctx context.Context) ([]model.EnrichedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, raw_product_id, status, enriched_at, enriched_value FROM enriched_records ORDER BY enriched_at, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list enriched")
	}
	defer rows.Close()

	var records []model.EnrichedRecord
	for rows.Next() {
		var rec model.EnrichedRecord
		var valueJSON string
		if err := rows.Scan(&rec.ID, &rec.RawProductID, &rec.Status, &rec.EnrichedAt, &valueJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan enriched")
		}
		if err := json.Unmarshal([]byte(valueJSON), &rec.Value); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal enriched value")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list enriched iterate")
}
