package merger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/price-radar/internal/identity"
	"github.com/Houeta/price-radar/internal/models"
	"github.com/Houeta/price-radar/internal/repository"
	"github.com/Houeta/price-radar/internal/sanitize"
	"github.com/shopspring/decimal"
)

// HistoryWindow is the number of most recent observations the price aggregates are computed over.
const HistoryWindow = 1000

// Merger folds freshly scraped records into the persistent store.
type Merger struct {
	log  *slog.Logger
	repo repository.ProductRepository
	now  func() time.Time
}

// Interface is the contract the pipeline depends on.
type Interface interface {
	Merge(ctx context.Context, products []models.Product) (models.MergeResult, error)
}

// NewMerger creates a new Merger instance.
func NewMerger(log *slog.Logger, repo repository.ProductRepository) *Merger {
	return &Merger{log: log, repo: repo, now: time.Now}
}

// Merge stores brand-new records and appends a price observation to records already known by url or product id.
//
// Per-record problems are counted in the result. An error is returned only when the store
// cannot be read or when no write at all succeeded because of store failures.
func (m *Merger) Merge(ctx context.Context, products []models.Product) (models.MergeResult, error) {
	const opn = "merger.Merge"
	log := m.log.With("op", opn)

	var result models.MergeResult
	if len(products) == 0 {
		return result, nil
	}

	valid := make([]models.Product, 0, len(products))
	for _, p := range products {
		clean, err := sanitize.Product(p)
		if err != nil {
			log.WarnContext(ctx, "Skipping invalid record", "url", p.URL, "error", err)
			result.Skipped++
			continue
		}
		valid = append(valid, clean)
	}
	if len(valid) == 0 {
		return result, nil
	}

	urls := make([]string, 0, len(valid))
	ids := make([]string, 0, len(valid))
	for _, p := range valid {
		urls = append(urls, p.URL)
		if p.ProductID != "" {
			ids = append(ids, p.ProductID)
		}
	}

	existing, err := m.repo.FindIdentities(ctx, urls, ids)
	if err != nil {
		return result, fmt.Errorf("%s: failed to load existing identities: %w", opn, err)
	}
	index := identity.NewIndex(existing)

	now := m.now().UTC()
	var fresh []models.Product
	type update struct {
		owner   string
		scraped models.Product
	}
	var updates []update

	for _, p := range valid {
		if owner, ok := index.Lookup(p.URL, p.ProductID); ok {
			updates = append(updates, update{owner: owner, scraped: p})
			continue
		}
		index.Add(p.URL, p.ProductID)
		fresh = append(fresh, newRecord(p, now))
	}
	log.DebugContext(ctx, "Partitioned scraped records", "new", len(fresh), "update", len(updates))

	var writeErrs []error

	stored, errs := m.insert(ctx, log, fresh)
	result.Stored = stored
	result.Failed += len(fresh) - stored
	writeErrs = append(writeErrs, errs...)

	for _, u := range updates {
		if err = m.update(ctx, u.owner, u.scraped, now); err != nil {
			log.WarnContext(ctx, "Failed to update record", "url", u.owner, "error", err)
			result.Failed++
			writeErrs = append(writeErrs, err)
			continue
		}
		result.Updated++
	}

	log.InfoContext(
		ctx,
		"Merge complete",
		"stored", result.Stored,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	if result.Stored == 0 && result.Updated == 0 && len(writeErrs) > 0 && allInfrastructure(writeErrs) {
		return result, fmt.Errorf("%s: every write failed: %w", opn, errors.Join(writeErrs...))
	}

	return result, nil
}

// insert tries a single bulk write and falls back to per-record inserts when it fails.
func (m *Merger) insert(ctx context.Context, log *slog.Logger, fresh []models.Product) (int, []error) {
	if len(fresh) == 0 {
		return 0, nil
	}

	err := m.repo.InsertMany(ctx, fresh)
	if err == nil {
		return len(fresh), nil
	}
	log.WarnContext(ctx, "Bulk insert failed, inserting records one by one", "count", len(fresh), "error", err)

	stored := 0
	var errs []error
	for _, p := range fresh {
		if err = m.repo.InsertOne(ctx, p); err != nil {
			log.WarnContext(ctx, "Failed to insert record", "url", p.URL, "error", err)
			errs = append(errs, err)
			continue
		}
		stored++
	}
	return stored, errs
}

// update appends the scraped observation to the record stored under owner and writes it back.
func (m *Merger) update(ctx context.Context, owner string, scraped models.Product, now time.Time) error {
	existing, err := m.repo.GetByURL(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}

	merged := scraped
	merged.URL = existing.URL
	if existing.ProductID != "" {
		merged.ProductID = existing.ProductID
	}
	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = now
	merged.PriceHistory = append(existing.PriceHistory, models.PricePoint{Price: scraped.CurrentPrice, ObservedAt: now})
	merged.LowestPrice, merged.HighestPrice, merged.AveragePrice = Aggregates(merged.PriceHistory)

	if err = m.repo.UpsertByURL(ctx, merged); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func newRecord(p models.Product, now time.Time) models.Product {
	p.PriceHistory = []models.PricePoint{{Price: p.CurrentPrice, ObservedAt: now}}
	p.LowestPrice, p.HighestPrice, p.AveragePrice = Aggregates(p.PriceHistory)
	p.CreatedAt = now
	p.UpdatedAt = now
	return p
}

// Aggregates returns the lowest, highest and average price over the last HistoryWindow entries of history.
func Aggregates(history []models.PricePoint) (decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	if len(history) == 0 {
		return decimal.Zero, decimal.Zero, decimal.Zero
	}

	lowest, highest := history[0].Price, history[0].Price
	sum := decimal.Zero
	for _, point := range history {
		if point.Price.LessThan(lowest) {
			lowest = point.Price
		}
		if point.Price.GreaterThan(highest) {
			highest = point.Price
		}
		sum = sum.Add(point.Price)
	}
	return lowest, highest, sum.Div(decimal.NewFromInt(int64(len(history))))
}

// allInfrastructure reports whether none of errs is a per-record key collision.
func allInfrastructure(errs []error) bool {
	for _, err := range errs {
		if errors.Is(err, repository.ErrDuplicate) || errors.Is(err, repository.ErrProductNotFound) {
			return false
		}
	}
	return true
}
