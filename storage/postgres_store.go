package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"rental-notifier/models"
)

// PostgresStore keeps the known set and listing records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS known_listings (
			id            TEXT        PRIMARY KEY,
			first_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS retry_listings (
			id TEXT PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS listings (
			id           TEXT          PRIMARY KEY,
			price        NUMERIC(10,2) NOT NULL DEFAULT 0,
			epc          VARCHAR(1)    NOT NULL DEFAULT '',
			record       JSONB         NOT NULL,
			extracted_at TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS store_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);
	`)
	return err
}

func (ps *PostgresStore) Contains(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := ps.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: contains %q: %w", id, err)
	}
	return exists, nil
}

func (ps *PostgresStore) Get(ctx context.Context, id string) (*models.Listing, error) {
	var raw []byte
	err := ps.db.QueryRowContext(ctx,
		`SELECT record FROM listings WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %q: %w", id, err)
	}
	var l models.Listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("postgres: decode %q: %w", id, err)
	}
	return &l, nil
}

func (ps *PostgresStore) Put(ctx context.Context, l *models.Listing) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("postgres: encode %q: %w", l.ID, err)
	}
	res, err := ps.db.ExecContext(ctx, `
		INSERT INTO listings (id, price, epc, record, extracted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, l.ID, l.Price, l.EPC, raw, l.ExtractedAt)
	if err != nil {
		return fmt.Errorf("postgres: put %q: %w", l.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

// LoadKnown reports found=false until SaveKnown has run once, even if the
// saved set was empty.
func (ps *PostgresStore) LoadKnown(ctx context.Context) ([]string, bool, error) {
	var marker string
	err := ps.db.QueryRowContext(ctx,
		`SELECT value FROM store_meta WHERE key = 'known_saved_at'`).Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres: load known marker: %w", err)
	}

	ids, err := ps.queryIDs(ctx, `SELECT id FROM known_listings ORDER BY id`)
	if err != nil {
		return nil, false, fmt.Errorf("postgres: load known: %w", err)
	}
	return ids, true, nil
}

// SaveKnown only ever adds ids; the known set never shrinks.
func (ps *PostgresStore) SaveKnown(ctx context.Context, ids []string) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertIDs(ctx, tx, "known_listings", ids); err != nil {
		return fmt.Errorf("postgres: save known: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO store_meta (key, value) VALUES ('known_saved_at', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("postgres: save known marker: %w", err)
	}
	return tx.Commit()
}

func (ps *PostgresStore) LoadRetry(ctx context.Context) ([]string, error) {
	ids, err := ps.queryIDs(ctx, `SELECT id FROM retry_listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load retry: %w", err)
	}
	return ids, nil
}

// SaveRetry replaces the retry set.
func (ps *PostgresStore) SaveRetry(ctx context.Context, ids []string) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM retry_listings`); err != nil {
		return fmt.Errorf("postgres: clear retry: %w", err)
	}
	if err := insertIDs(ctx, tx, "retry_listings", ids); err != nil {
		return fmt.Errorf("postgres: save retry: %w", err)
	}
	return tx.Commit()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func (ps *PostgresStore) queryIDs(ctx context.Context, query string) ([]string, error) {
	rows, err := ps.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// insertIDs batch-inserts ids into a single-column id table, skipping
// ids that are already present.
func insertIDs(ctx context.Context, tx *sql.Tx, table string, ids []string) error {
	const batchSize = 200
	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[i:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]interface{}, 0, len(batch))
		for idx, id := range batch {
			placeholders = append(placeholders, fmt.Sprintf("($%d)", idx+1))
			args = append(args, id)
		}

		query := fmt.Sprintf(`INSERT INTO %s (id) VALUES %s ON CONFLICT (id) DO NOTHING`,
			table, strings.Join(placeholders, ","))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}
