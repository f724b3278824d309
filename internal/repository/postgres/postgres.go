package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultMaxConns is used when the caller does not size the pool.
const DefaultMaxConns = 4

// Repository is a PostgreSQL-backed product store.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository connects to dsn, verifies the connection and migrates the schema.
// viaBouncer switches to the simple protocol for transaction-pooling bouncers.
func NewRepository(ctx context.Context, log *slog.Logger, dsn string, maxConns int, viaBouncer bool) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	cfg.MaxConns = int32(maxConns) //nolint:gosec // small positive pool size
	if viaBouncer {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	if err = initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("DB schema initialization error: %w", err)
	}

	return &Repository{pool: pool, log: log}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const migrationQuery = `
	CREATE TABLE IF NOT EXISTS products (
		url TEXT PRIMARY KEY,
		product_id TEXT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		currency TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		current_price NUMERIC NOT NULL DEFAULT 0,
		original_price NUMERIC NOT NULL DEFAULT 0,
		lowest_price NUMERIC NOT NULL DEFAULT 0,
		highest_price NUMERIC NOT NULL DEFAULT 0,
		average_price NUMERIC NOT NULL DEFAULT 0,
		discount_rate INTEGER NOT NULL DEFAULT 0,
		is_out_of_stock BOOLEAN NOT NULL DEFAULT FALSE,
		reviews_count INTEGER NOT NULL DEFAULT 0,
		stars DOUBLE PRECISION NOT NULL DEFAULT 0,
		price_history JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_products_product_id
		ON products (product_id) WHERE product_id IS NOT NULL;

	CREATE INDEX IF NOT EXISTS idx_products_category ON products (category);

	CREATE TABLE IF NOT EXISTS subscriptions (
		chat_id BIGINT PRIMARY KEY
	);
	`
	if _, err := pool.Exec(ctx, migrationQuery); err != nil {
		return fmt.Errorf("failed to execute migration query: %w", err)
	}

	return nil
}

// Close releases every pooled connection.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Pool exposes the underlying pool.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
