package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Houeta/price-radar/internal/models"
	"github.com/Houeta/price-radar/internal/repository"
	"github.com/mattn/go-sqlite3"
)

// maxChunk keeps IN lists under SQLite's bound-parameter limit.
const maxChunk = 400

const productColumns = `url, product_id, title, description, currency, image_url, category,
	current_price, original_price, lowest_price, highest_price, average_price,
	discount_rate, is_out_of_stock, reviews_count, stars, price_history, created_at, updated_at`

const insertProductQuery = `INSERT INTO products (` + productColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const upsertProductQuery = insertProductQuery + `
	ON CONFLICT (url) DO UPDATE SET
		product_id = excluded.product_id,
		title = excluded.title,
		description = excluded.description,
		currency = excluded.currency,
		image_url = excluded.image_url,
		category = excluded.category,
		current_price = excluded.current_price,
		original_price = excluded.original_price,
		lowest_price = excluded.lowest_price,
		highest_price = excluded.highest_price,
		average_price = excluded.average_price,
		discount_rate = excluded.discount_rate,
		is_out_of_stock = excluded.is_out_of_stock,
		reviews_count = excluded.reviews_count,
		stars = excluded.stars,
		price_history = excluded.price_history,
		updated_at = excluded.updated_at`

// FindIdentities loads the keys of records matching any of the given urls or product ids.
func (r *Repository) FindIdentities(ctx context.Context, urls, productIDs []string) ([]models.Identity, error) {
	const opn = "repository.sqlite.FindIdentities"

	seen := make(map[string]struct{})
	var identities []models.Identity

	lookup := func(column string, keys []string) error {
		for start := 0; start < len(keys); start += maxChunk {
			chunk := keys[start:min(start+maxChunk, len(keys))]
			query := fmt.Sprintf(
				"SELECT url, COALESCE(product_id, '') FROM products WHERE %s IN (%s)",
				column, placeholders(len(chunk)),
			)

			rows, err := r.db.QueryContext(ctx, query, toArgs(chunk)...)
			if err != nil {
				return fmt.Errorf("failed to query identities by %s: %w", column, err)
			}

			for rows.Next() {
				var ident models.Identity
				if err = rows.Scan(&ident.URL, &ident.ProductID); err != nil {
					rows.Close()
					return fmt.Errorf("failed to scan identity: %w", err)
				}
				if _, dup := seen[ident.URL]; !dup {
					seen[ident.URL] = struct{}{}
					identities = append(identities, ident)
				}
			}
			err = rows.Err()
			rows.Close()
			if err != nil {
				return fmt.Errorf("rows iteration error: %w", err)
			}
		}
		return nil
	}

	if err := lookup("url", nonEmpty(urls)); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	if err := lookup("product_id", nonEmpty(productIDs)); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return identities, nil
}

// GetByURL returns the record stored under url.
func (r *Repository) GetByURL(ctx context.Context, url string) (models.Product, error) {
	const opn = "repository.sqlite.GetByURL"

	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE url = ?", url)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Product{}, repository.ErrProductNotFound
		}
		return models.Product{}, fmt.Errorf("%s: %w", opn, err)
	}

	return product, nil
}

// InsertOne stores a single new record.
func (r *Repository) InsertOne(ctx context.Context, product models.Product) error {
	const opn = "repository.sqlite.InsertOne"

	args, err := productArgs(product)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	if _, err = r.db.ExecContext(ctx, insertProductQuery, args...); err != nil {
		return fmt.Errorf("%s: %w", opn, translateError(err))
	}

	return nil
}

// InsertMany stores all records inside one transaction.
func (r *Repository) InsertMany(ctx context.Context, products []models.Product) error {
	const opn = "repository.sqlite.InsertMany"

	if len(products) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", opn, err)
	}
	defer tx.Rollback() //nolint:errcheck // returns sql.ErrTxDone after a successful commit

	stmt, err := tx.PrepareContext(ctx, insertProductQuery)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare insert statement: %w", opn, err)
	}
	defer stmt.Close()

	for _, p := range products {
		args, argErr := productArgs(p)
		if argErr != nil {
			return fmt.Errorf("%s: %w", opn, argErr)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%s: failed to insert product %s: %w", opn, p.URL, translateError(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", opn, err)
	}

	return nil
}

// UpsertByURL creates or replaces the record keyed by product.URL. The original created_at is kept.
func (r *Repository) UpsertByURL(ctx context.Context, product models.Product) error {
	const opn = "repository.sqlite.UpsertByURL"

	args, err := productArgs(product)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	if _, err = r.db.ExecContext(ctx, upsertProductQuery, args...); err != nil {
		return fmt.Errorf("%s: %w", opn, translateError(err))
	}

	return nil
}

// ListProducts returns all records, oldest first.
func (r *Repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	const opn = "repository.sqlite.ListProducts"

	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY created_at, url")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get products: %w", opn, err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return products, nil
}

// Search matches query against title, description and category. LIKE is case-insensitive for ASCII in SQLite.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	const opn = "repository.sqlite.Search"

	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+` FROM products
		WHERE title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\'
		ORDER BY updated_at DESC LIMIT ?`,
		pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to search products: %w", opn, err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var (
		p         models.Product
		productID sql.NullString
		history   string
	)

	err := row.Scan(
		&p.URL, &productID, &p.Title, &p.Description, &p.Currency, &p.ImageURL, &p.Category,
		&p.CurrentPrice, &p.OriginalPrice, &p.LowestPrice, &p.HighestPrice, &p.AveragePrice,
		&p.DiscountRate, &p.IsOutOfStock, &p.ReviewsCount, &p.Stars, &history, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return models.Product{}, err
	}

	p.ProductID = productID.String
	if p.PriceHistory, err = repository.DecodeHistory(history); err != nil {
		return models.Product{}, fmt.Errorf("product %s: %w", p.URL, err)
	}

	return p, nil
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
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

func productArgs(p models.Product) ([]any, error) {
	history, err := repository.EncodeHistory(p.PriceHistory)
	if err != nil {
		return nil, err
	}

	productID := sql.NullString{String: p.ProductID, Valid: p.ProductID != ""}

	return []any{
		p.URL, productID, p.Title, p.Description, p.Currency, p.ImageURL, p.Category,
		p.CurrentPrice.String(), p.OriginalPrice.String(), p.LowestPrice.String(),
		p.HighestPrice.String(), p.AveragePrice.String(),
		p.DiscountRate, p.IsOutOfStock, p.ReviewsCount, p.Stars, history,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	}, nil
}

// translateError maps constraint violations onto repository.ErrDuplicate.
func translateError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
	}
	return err
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(keys []string) []any {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return args
}

func nonEmpty(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
