package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresKV persists records in a single key/value table.
type PostgresKV struct {
	db *pgxpool.Pool
}

// NewPostgresKV constructs a Postgres-backed backend and ensures its table exists.
func NewPostgresKV(ctx context.Context, db *pgxpool.Pool) (*PostgresKV, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("migrate kv_store: %w", err)
	}
	return &PostgresKV{db: db}, nil
}

// Get fetches the value stored under key.
func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

// Set upserts the value stored under key.
func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.db.Exec(ctx, `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value)
	return err
}

// Count returns the number of keys starting with prefix.
func (p *PostgresKV) Count(ctx context.Context, prefix string) (int, error) {
	var n int
	if err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM kv_store WHERE starts_with(key, $1)`, prefix).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
