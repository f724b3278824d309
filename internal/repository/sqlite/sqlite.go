package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Repository represents a data repository that interacts with the database
// and provides logging capabilities. It holds a reference to the database
// and a logger instance for logging operations.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository opens (or creates) the SQLite file at storagePath and migrates the schema.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string) (*Repository, error) {
	dtb, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", storagePath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Check if the connection is actually established.
	if err = dtb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	if err = initSchema(ctx, dtb); err != nil {
		return nil, fmt.Errorf("DB schema initialization error: %w", err)
	}

	return &Repository{db: dtb, log: log}, nil
}

// NewForTest wraps an already opened handle without touching the schema.
func NewForTest(dtb *sql.DB) *Repository {
	return &Repository{db: dtb, log: slog.New(slog.DiscardHandler)}
}

// initSchema creates the necessary tables if they don't already exist.
// Prices are stored as decimal text; the price history is a JSON document column.
func initSchema(ctx context.Context, dtb *sql.DB) error {
	const migrationQuery = `
	CREATE TABLE IF NOT EXISTS products (
		url TEXT PRIMARY KEY NOT NULL,
		product_id TEXT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		currency TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		current_price TEXT NOT NULL DEFAULT '0',
		original_price TEXT NOT NULL DEFAULT '0',
		lowest_price TEXT NOT NULL DEFAULT '0',
		highest_price TEXT NOT NULL DEFAULT '0',
		average_price TEXT NOT NULL DEFAULT '0',
		discount_rate INTEGER NOT NULL DEFAULT 0,
		is_out_of_stock INTEGER NOT NULL DEFAULT 0,
		reviews_count INTEGER NOT NULL DEFAULT 0,
		stars REAL NOT NULL DEFAULT 0,
		price_history TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_products_product_id
		ON products (product_id) WHERE product_id IS NOT NULL;

	CREATE INDEX IF NOT EXISTS idx_products_category ON products (category);

	CREATE TABLE IF NOT EXISTS subscriptions (
		chat_id INTEGER PRIMARY KEY NOT NULL
	);
	`
	_, err := dtb.ExecContext(ctx, migrationQuery)
	if err != nil {
		return fmt.Errorf("failed to execute migration query: %w", err)
	}

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}
