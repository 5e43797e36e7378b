package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/foodpipe/foodpipe/internal/db"
	"github.com/foodpipe/foodpipe/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot staging operations.
var preparedStatements = map[string]string{
	"insert_raw":    `INSERT INTO raw_products (id, source, fetched_at, raw_hash, payload) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (raw_hash) DO NOTHING`,
	"list_raw_page": `SELECT id, source, fetched_at, raw_hash, payload FROM raw_products ORDER BY fetched_at, id LIMIT $1 OFFSET $2`,
	"existing_ids":  `SELECT raw_product_id FROM enriched_records WHERE raw_product_id = ANY($1)`,
	"list_enriched": `SELECT id, raw_product_id, status, enriched_at, enriched_value FROM enriched_records ORDER BY enriched_at, id`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS raw_products (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	raw_hash   TEXT NOT NULL UNIQUE,
	payload    JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS enriched_records (
	id             TEXT PRIMARY KEY,
	raw_product_id TEXT NOT NULL,
	status         BOOLEAN NOT NULL,
	enriched_at    TIMESTAMPTZ NOT NULL,
	enriched_value JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_raw_products_fetched_at ON raw_products(fetched_at);
CREATE INDEX IF NOT EXISTS idx_enriched_records_raw_id ON enriched_records(raw_product_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) InsertRaw(ctx context.Context, rec model.SourceRecord) (bool, error) {
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}

	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return false, eris.Wrap(err, "postgres: marshal payload")
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO raw_products (id, source, fetched_at, raw_hash, payload) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (raw_hash) DO NOTHING`,
		id, rec.Source, rec.FetchedAt, rec.RawHash, payloadJSON,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert raw")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListRawPage(ctx context.Context, page, pageSize int) ([]model.SourceRecord, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := s.pool.Query(ctx,
		`SELECT id, source, fetched_at, raw_hash, payload FROM raw_products ORDER BY fetched_at, id LIMIT $1 OFFSET $2`,
		pageSize, offset,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list raw page %d", page)
	}
	defer rows.Close()

	var records []model.SourceRecord
	for rows.Next() {
		var rec model.SourceRecord
		var payloadJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.FetchedAt, &rec.RawHash, &payloadJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan raw")
		}
		if err := json.Unmarshal(payloadJSON, &rec.Payload); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal payload")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list raw iterate")
}

func (s *PostgresStore) ExistingEnrichedIDs(ctx context.Context, rawIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(rawIDs))
	if len(rawIDs) == 0 {
		return existing, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT raw_product_id FROM enriched_records WHERE raw_product_id = ANY($1)`,
		rawIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: existing enriched ids")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan enriched id")
		}
		existing[id] = true
	}
	return existing, eris.Wrap(rows.Err(), "postgres: existing ids iterate")
}

func (s *PostgresStore) InsertEnriched(ctx context.Context, records []model.EnrichedRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	copyRows := make([][]any, 0, len(records))
	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.New().String()
		}
		valueJSON, err := json.Marshal(rec.Value)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal enriched value")
		}
		copyRows = append(copyRows, []any{id, rec.RawProductID, rec.Status, rec.EnrichedAt, valueJSON})
	}

	n, err := db.CopyFrom(ctx, s.pool, "enriched_records",
		[]string{"id", "raw_product_id", "status", "enriched_at", "enriched_value"},
		copyRows,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert enriched")
	}
	return int(n), nil
}

func (s *PostgresStore) ListEnriched(ctx context.Context) ([]model.EnrichedRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, raw_product_id, status, enriched_at, enriched_value FROM enriched_records ORDER BY enriched_at, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list enriched")
	}
	defer rows.Close()

	var records []model.EnrichedRecord
	for rows.Next() {
		var rec model.EnrichedRecord
		var valueJSON []byte
		if err := rows.Scan(&rec.ID, &rec.RawProductID, &rec.Status, &rec.EnrichedAt, &valueJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan enriched")
		}
		if err := json.Unmarshal(valueJSON, &rec.Value); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal enriched value")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list enriched iterate")
}
