package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/price-radar/internal/fetcher"
	"github.com/Houeta/price-radar/internal/models"
	"github.com/Houeta/price-radar/internal/parser"
	"github.com/Houeta/price-radar/internal/sanitize"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 20
	DefaultBatchDelay  = 100 * time.Millisecond
)

// Scraper fetches and parses product pages in sequential, internally concurrent batches.
type Scraper struct {
	log        *slog.Logger
	fetcher    fetcher.HTMLFetcher
	parser     parser.HTMLParser
	batchDelay time.Duration
}

// NewScraper creates a Scraper. A negative batchDelay is treated as zero.
func NewScraper(log *slog.Logger, htmlFetcher fetcher.HTMLFetcher, htmlParser parser.HTMLParser, batchDelay time.Duration) *Scraper {
	return &Scraper{log: log, fetcher: htmlFetcher, parser: htmlParser, batchDelay: max(batchDelay, 0)}
}

// ScrapeAll scrapes urls in batches of concurrency. Batch i+1 starts only after every item of
// batch i has finished. A failing URL is recorded in FailedURLs and never stops the run.
//
// The returned error is non-nil only when the run was cut short: the proxy rejected the
// credentials or ctx ended. URLs that were never attempted are then reported as failed.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string, concurrency int) (models.ScrapeResult, error) {
	const opn = "scraper.ScrapeAll"
	log := s.log.With("op", opn)

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var result models.ScrapeResult
	for start := 0; start < len(urls); start += concurrency {
		if start > 0 {
			if err := sleep(ctx, s.batchDelay); err != nil {
				result.FailedURLs = append(result.FailedURLs, urls[start:]...)
				return result, fmt.Errorf("%s: %w", opn, err)
			}
		}

		batch := urls[start:min(start+concurrency, len(urls))]
		products, errs := s.scrapeBatch(ctx, batch)

		abort := false
		for i, url := range batch {
			if errs[i] != nil {
				log.WarnContext(ctx, "Product scrape failed", "url", url, "error", errs[i])
				result.FailedURLs = append(result.FailedURLs, url)
				abort = abort || errors.Is(errs[i], fetcher.ErrProxyAuth)
				continue
			}
			result.Products = append(result.Products, products[i])
		}

		done := start + len(batch)
		log.DebugContext(ctx, "Scrape progress", "done", done, "total", len(urls), "failed", len(result.FailedURLs))

		if abort {
			result.FailedURLs = append(result.FailedURLs, urls[done:]...)
			return result, fmt.Errorf("%s: %w", opn, fetcher.ErrProxyAuth)
		}
	}

	log.InfoContext(ctx, "Scrape completed", "scraped", len(result.Products), "failed", len(result.FailedURLs))

	return result, nil
}

// scrapeBatch runs one batch concurrently. Results are indexed like batch.
func (s *Scraper) scrapeBatch(ctx context.Context, batch []string) ([]models.Product, []error) {
	products := make([]models.Product, len(batch))
	errs := make([]error, len(batch))

	var g errgroup.Group
	for i, url := range batch {
		g.Go(func() error {
			products[i], errs[i] = s.scrapeOne(ctx, url)
			return nil
		})
	}
	_ = g.Wait()

	return products, errs
}

// scrapeOne fetches, parses and sanitizes a single product page.
func (s *Scraper) scrapeOne(ctx context.Context, url string) (product models.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			product, err = models.Product{}, fmt.Errorf("scrape %s: panic: %v", url, r)
		}
	}()

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return models.Product{}, err
	}

	product, err = s.parser.ParseProduct(ctx, bytes.NewReader(body), url)
	if err != nil {
		return models.Product{}, fmt.Errorf("parse %s: %w", url, err)
	}

	product, err = sanitize.Product(product)
	if err != nil {
		return models.Product{}, fmt.Errorf("validate %s: %w", url, err)
	}

	return product, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
