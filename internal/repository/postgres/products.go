package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Houeta/price-radar/internal/models"
	"github.com/Houeta/price-radar/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const selectProductColumns = `url, COALESCE(product_id, ''), title, description, currency, image_url, category,
	current_price::text, original_price::text, lowest_price::text, highest_price::text, average_price::text,
	discount_rate, is_out_of_stock, reviews_count, stars, price_history::text, created_at, updated_at`

// Prices and history travel as text and are cast server-side.
const insertProductQuery = `INSERT INTO products (url, product_id, title, description, currency, image_url, category,
	current_price, original_price, lowest_price, highest_price, average_price,
	discount_rate, is_out_of_stock, reviews_count, stars, price_history, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7,
		$8::text::numeric, $9::text::numeric, $10::text::numeric, $11::text::numeric, $12::text::numeric,
		$13, $14, $15, $16, $17::text::jsonb, $18, $19)`

const upsertProductQuery = insertProductQuery + `
	ON CONFLICT (url) DO UPDATE SET
		product_id = EXCLUDED.product_id,
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		currency = EXCLUDED.currency,
		image_url = EXCLUDED.image_url,
		category = EXCLUDED.category,
		current_price = EXCLUDED.current_price,
		original_price = EXCLUDED.original_price,
		lowest_price = EXCLUDED.lowest_price,
		highest_price = EXCLUDED.highest_price,
		average_price = EXCLUDED.average_price,
		discount_rate = EXCLUDED.discount_rate,
		is_out_of_stock = EXCLUDED.is_out_of_stock,
		reviews_count = EXCLUDED.reviews_count,
		stars = EXCLUDED.stars,
		price_history = EXCLUDED.price_history,
		updated_at = EXCLUDED.updated_at`

// FindIdentities loads the keys of every record matching either key set in one query.
func (r *Repository) FindIdentities(ctx context.Context, urls, productIDs []string) ([]models.Identity, error) {
	const opn = "repository.postgres.FindIdentities"

	if len(urls) == 0 && len(productIDs) == 0 {
		return nil, nil
	}
	if urls == nil {
		urls = []string{}
	}
	if productIDs == nil {
		productIDs = []string{}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT url, COALESCE(product_id, '') FROM products WHERE url = ANY($1) OR product_id = ANY($2)`,
		urls, productIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query identities: %w", opn, err)
	}
	defer rows.Close()

	var identities []models.Identity
	for rows.Next() {
		var ident models.Identity
		if err = rows.Scan(&ident.URL, &ident.ProductID); err != nil {
			return nil, fmt.Errorf("%s: failed to scan identity: %w", opn, err)
		}
		identities = append(identities, ident)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return identities, nil
}

// GetByURL returns the record stored under url.
func (r *Repository) GetByURL(ctx context.Context, url string) (models.Product, error) {
	const opn = "repository.postgres.GetByURL"

	row := r.pool.QueryRow(ctx, "SELECT "+selectProductColumns+" FROM products WHERE url = $1", url)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, repository.ErrProductNotFound
		}
		return models.Product{}, fmt.Errorf("%s: %w", opn, err)
	}

	return product, nil
}

// InsertOne stores a single new record.
func (r *Repository) InsertOne(ctx context.Context, product models.Product) error {
	const opn = "repository.postgres.InsertOne"

	args, err := productArgs(product)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	if _, err = r.pool.Exec(ctx, insertProductQuery, args...); err != nil {
		return fmt.Errorf("%s: %w", opn, translateError(err))
	}

	return nil
}

// InsertMany queues every insert into one batch inside a transaction.
func (r *Repository) InsertMany(ctx context.Context, products []models.Product) error {
	const opn = "repository.postgres.InsertMany"

	if len(products) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", opn, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // returns pgx.ErrTxClosed after a successful commit

	batch := &pgx.Batch{}
	for _, p := range products {
		args, argErr := productArgs(p)
		if argErr != nil {
			return fmt.Errorf("%s: %w", opn, argErr)
		}
		batch.Queue(insertProductQuery, args...)
	}

	results := tx.SendBatch(ctx, batch)
	for _, p := range products {
		if _, err = results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("%s: failed to insert product %s: %w", opn, p.URL, translateError(err))
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("%s: failed to close batch: %w", opn, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", opn, err)
	}

	return nil
}

// UpsertByURL creates or replaces the record keyed by product.URL. The original created_at is kept.
func (r *Repository) UpsertByURL(ctx context.Context, product models.Product) error {
	const opn = "repository.postgres.UpsertByURL"

	args, err := productArgs(product)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	if _, err = r.pool.Exec(ctx, upsertProductQuery, args...); err != nil {
		return fmt.Errorf("%s: %w", opn, translateError(err))
	}

	return nil
}

// ListProducts returns all records, oldest first.
func (r *Repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	const opn = "repository.postgres.ListProducts"

	rows, err := r.pool.Query(ctx, "SELECT "+selectProductColumns+" FROM products ORDER BY created_at, url")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get products: %w", opn, err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return products, nil
}

// Search matches query against title, description and category with ILIKE.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	const opn = "repository.postgres.Search"

	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	rows, err := r.pool.Query(ctx, "SELECT "+selectProductColumns+` FROM products
		WHERE title ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
		ORDER BY updated_at DESC LIMIT $2`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to search products: %w", opn, err)
	}

	products, err := collectProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return products, nil
}

func collectProducts(rows pgx.Rows) ([]models.Product, error) {
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return products, nil
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var (
		p       models.Product
		prices  [5]string
		history string
	)

	err := row.Scan(
		&p.URL, &p.ProductID, &p.Title, &p.Description, &p.Currency, &p.ImageURL, &p.Category,
		&prices[0], &prices[1], &prices[2], &prices[3], &prices[4],
		&p.DiscountRate, &p.IsOutOfStock, &p.ReviewsCount, &p.Stars, &history, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return models.Product{}, err
	}

	targets := []*decimal.Decimal{&p.CurrentPrice, &p.OriginalPrice, &p.LowestPrice, &p.HighestPrice, &p.AveragePrice}
	for i, target := range targets {
		if *target, err = decimal.NewFromString(prices[i]); err != nil {
			return models.Product{}, fmt.Errorf("product %s: invalid price %q: %w", p.URL, prices[i], err)
		}
	}

	if p.PriceHistory, err = repository.DecodeHistory(history); err != nil {
		return models.Product{}, fmt.Errorf("product %s: %w", p.URL, err)
	}

	return p, nil
}

func productArgs(p models.Product) ([]any, error) {
	history, err := repository.EncodeHistory(p.PriceHistory)
	if err != nil {
		return nil, err
	}

	var productID any
	if p.ProductID != "" {
		productID = p.ProductID
	}

	return []any{
		p.URL, productID, p.Title, p.Description, p.Currency, p.ImageURL, p.Category,
		p.CurrentPrice.String(), p.OriginalPrice.String(), p.LowestPrice.String(),
		p.HighestPrice.String(), p.AveragePrice.String(),
		p.DiscountRate, p.IsOutOfStock, p.ReviewsCount, p.Stars, history,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	}, nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
	}
	return err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
