package pipeline

import (
	"context"

	"github.com/Houeta/price-radar/internal/models"
)

// Discoverer finds candidate product urls.
type Discoverer interface {
	Discover(ctx context.Context, target int) ([]string, error)
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

// BatchScraper turns product urls into records.
type BatchScraper interface {
	ScrapeAll(ctx context.Context, urls []string, concurrency int) (models.ScrapeResult, error)
}

// Merger folds scraped records into the store.
type Merger interface {
	Merge(ctx context.Context, products []models.Product) (models.MergeResult, error)
}

// IdentityFinder reports which urls or product ids are already stored.
type IdentityFinder interface {
	FindIdentities(ctx context.Context, urls, productIDs []string) ([]models.Identity, error)
}
