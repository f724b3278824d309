package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Houeta/price-radar/internal/identity"
	"github.com/Houeta/price-radar/internal/models"
)

const (
	DefaultBatchSize     = 50
	DefaultSearchResults = 20
	DefaultConcurrency   = 20
)

// Orchestrator runs one discovery-to-storage cycle per call. It keeps no state between calls;
// overlapping calls must be prevented by the caller.
type Orchestrator struct {
	log         *slog.Logger
	discoverer  Discoverer
	scraper     BatchScraper
	merger      Merger
	identities  IdentityFinder
	concurrency int
}

// NewOrchestrator creates a new Orchestrator instance. A non-positive concurrency uses DefaultConcurrency.
func NewOrchestrator(
	log *slog.Logger,
	discoverer Discoverer,
	scraper BatchScraper,
	merger Merger,
	identities IdentityFinder,
	concurrency int,
) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		log:         log,
		discoverer:  discoverer,
		scraper:     scraper,
		merger:      merger,
		identities:  identities,
		concurrency: concurrency,
	}
}

// RunCycle discovers up to batchSize products, scrapes the ones not stored yet and stores them.
// Count in the result is the number of newly stored records.
func (o *Orchestrator) RunCycle(ctx context.Context, batchSize int) models.CycleResult {
	const opn = "pipeline.RunCycle"
	log := o.log.With("op", opn)

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	log.InfoContext(ctx, "Starting scraping cycle", "batch_size", batchSize)

	var result models.CycleResult

	urls, err := o.discoverer.Discover(ctx, batchSize)
	if err != nil {
		return o.fail(ctx, log, result, "Discovery failed", err)
	}
	result.Discovered = len(urls)
	if len(urls) == 0 {
		return o.done(ctx, log, result, "No products discovered")
	}

	fresh, err := o.filterStored(ctx, urls)
	if err != nil {
		return o.fail(ctx, log, result, "Failed to check existing products", err)
	}
	result.Fresh = len(fresh)
	if len(fresh) == 0 {
		return o.done(ctx, log, result, "All products already exist")
	}

	scraped, err := o.scraper.ScrapeAll(ctx, fresh, o.concurrency)
	result.Scraped = len(scraped.Products)
	result.Failed = len(scraped.FailedURLs)
	if err != nil {
		merged := o.salvage(ctx, log, scraped.Products)
		result.Count = merged.Stored
		applyMerge(&result, merged)
		return o.fail(ctx, log, result, "Scraping failed", err)
	}
	if len(scraped.Products) == 0 {
		return o.done(ctx, log, result, "No products could be scraped")
	}

	merged, err := o.merger.Merge(ctx, scraped.Products)
	result.Count = merged.Stored
	applyMerge(&result, merged)
	if err != nil {
		return o.fail(ctx, log, result, "Failed to store products", err)
	}

	return o.done(ctx, log, result, fmt.Sprintf("Stored %d new products", merged.Stored))
}

// SearchAndStore scrapes the marketplace search results for query and stores or refreshes them.
// Count in the result is the number of records stored or updated.
func (o *Orchestrator) SearchAndStore(ctx context.Context, query string, maxResults int) models.CycleResult {
	const opn = "pipeline.SearchAndStore"
	log := o.log.With("op", opn, "query", query)

	var result models.CycleResult

	query = strings.TrimSpace(query)
	if query == "" {
		result.Message = "Search query is required"
		return result
	}
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}

	urls, err := o.discoverer.Search(ctx, query, maxResults)
	if err != nil {
		return o.fail(ctx, log, result, "Search failed", err)
	}
	result.Discovered = len(urls)
	result.Fresh = len(urls)
	if len(urls) == 0 {
		return o.done(ctx, log, result, "No products found")
	}

	scraped, err := o.scraper.ScrapeAll(ctx, urls, o.concurrency)
	result.Scraped = len(scraped.Products)
	result.Failed = len(scraped.FailedURLs)
	if err != nil {
		merged := o.salvage(ctx, log, scraped.Products)
		result.Count = merged.Stored + merged.Updated
		applyMerge(&result, merged)
		return o.fail(ctx, log, result, "Scraping failed", err)
	}
	if len(scraped.Products) == 0 {
		return o.done(ctx, log, result, "No products could be scraped")
	}

	merged, err := o.merger.Merge(ctx, scraped.Products)
	result.Count = merged.Stored + merged.Updated
	applyMerge(&result, merged)
	if err != nil {
		return o.fail(ctx, log, result, "Failed to store products", err)
	}

	return o.done(ctx, log, result, fmt.Sprintf("Successfully stored %d products", result.Count))
}

// filterStored drops urls whose url or product id is already in the store.
func (o *Orchestrator) filterStored(ctx context.Context, urls []string) ([]string, error) {
	ids := make([]string, 0, len(urls))
	for _, u := range urls {
		if id := identity.ExtractStableID(u); id != "" {
			ids = append(ids, id)
		}
	}

	existing, err := o.identities.FindIdentities(ctx, urls, ids)
	if err != nil {
		return nil, err
	}
	index := identity.NewIndex(existing)

	fresh := make([]string, 0, len(urls))
	for _, u := range urls {
		if !index.Contains(u, identity.ExtractStableID(u)) {
			fresh = append(fresh, u)
		}
	}
	return fresh, nil
}

// salvage stores the records scraped before the scraper aborted. The write outlives ctx,
// which may be the reason the scraper stopped.
func (o *Orchestrator) salvage(ctx context.Context, log *slog.Logger, products []models.Product) models.MergeResult {
	if len(products) == 0 {
		return models.MergeResult{}
	}

	merged, err := o.merger.Merge(context.WithoutCancel(ctx), products)
	if err != nil {
		log.ErrorContext(ctx, "Failed to store products scraped before abort", "count", len(products), "error", err)
	}
	return merged
}

func applyMerge(result *models.CycleResult, merged models.MergeResult) {
	result.Updated = merged.Updated
	result.Skipped = merged.Skipped
	result.WriteFail = merged.Failed
}

func (o *Orchestrator) done(ctx context.Context, log *slog.Logger, result models.CycleResult, message string) models.CycleResult {
	result.Success = true
	result.Message = message
	log.InfoContext(
		ctx,
		"Cycle finished",
		"message", message,
		"count", result.Count,
		"discovered", result.Discovered,
		"fresh", result.Fresh,
		"scraped", result.Scraped,
		"failed", result.Failed,
		"updated", result.Updated,
	)
	return result
}

func (o *Orchestrator) fail(
	ctx context.Context,
	log *slog.Logger,
	result models.CycleResult,
	message string,
	err error,
) models.CycleResult {
	result.Success = false
	result.Message = fmt.Sprintf("%s: %v", message, err)
	log.ErrorContext(ctx, "Cycle failed", "message", message, "error", err)
	return result
}
