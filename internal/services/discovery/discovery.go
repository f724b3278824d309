package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Houeta/price-radar/internal/fetcher"
	"github.com/Houeta/price-radar/internal/identity"
	"github.com/Houeta/price-radar/internal/parser"
	"golang.org/x/sync/errgroup"
)

// Crawl limits.
const (
	MaxPagesPerCategory  = 10
	LinksPerPageEstimate = 50
	MaxLinksPerCategory  = 100
	SurfacePages         = 5
	MaxLinksPerSurface   = 50
	DefaultConcurrency   = 5
	DefaultPageDelay     = 500 * time.Millisecond
	DefaultSearchMax     = 20
)

// DefaultCategories is the bestseller catalog crawled on every run.
var DefaultCategories = []string{
	"electronics",
	"computers",
	"home-garden",
	"books",
	"clothing",
	"sports",
	"beauty",
	"home-improvement",
	"kitchen",
	"toys-games",
	"automotive",
	"pet-supplies",
	"health-personal-care",
	"baby-products",
	"office-products",
	"cell-phones-accessories",
	"musical-instruments",
	"industrial-scientific",
	"grocery-gourmet-food",
	"appliances",
}

// Surface is an auxiliary listing consulted when the catalog comes up short.
type Surface struct {
	Base     string
	Category string
}

// DefaultSurfaces are the new-release and mover pages.
var DefaultSurfaces = []Surface{
	{Base: "new-releases", Category: "electronics"},
	{Base: "movers-and-shakers", Category: "electronics"},
	{Base: "new-releases", Category: "computers"},
	{Base: "movers-and-shakers", Category: "computers"},
}

// Options tunes an Engine. Nil catalogs and a non-positive concurrency select the defaults;
// a zero PageDelay disables the pause between pages.
type Options struct {
	Categories  []string
	Surfaces    []Surface
	Concurrency int
	PageDelay   time.Duration
}

// Engine finds candidate product URLs on marketplace listing pages.
type Engine struct {
	log        *slog.Logger
	fetcher    fetcher.HTMLFetcher
	parser     parser.HTMLParser
	normalizer *identity.Normalizer
	opts       Options
}

func NewEngine(
	log *slog.Logger,
	htmlFetcher fetcher.HTMLFetcher,
	htmlParser parser.HTMLParser,
	normalizer *identity.Normalizer,
	opts Options,
) *Engine {
	if opts.Categories == nil {
		opts.Categories = DefaultCategories
	}
	if opts.Surfaces == nil {
		opts.Surfaces = DefaultSurfaces
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.PageDelay < 0 {
		opts.PageDelay = 0
	}

	return &Engine{log: log, fetcher: htmlFetcher, parser: htmlParser, normalizer: normalizer, opts: opts}
}

// Discover returns at most target deduplicated canonical URLs.
// Failed pages are logged and skipped. An error is returned only when the proxy rejects
// the credentials or ctx ends; the URLs gathered so far are returned with it.
func (e *Engine) Discover(ctx context.Context, target int) ([]string, error) {
	const opn = "discovery.Discover"
	log := e.log.With("op", opn)

	if target <= 0 {
		return nil, nil
	}

	col := newCollector(target)

	err := e.fanOut(ctx, len(e.opts.Categories), func(gctx context.Context, i int) error {
		category := e.opts.Categories[i]
		return e.crawl(gctx, col, e.pagesFor(col.remaining()), MaxLinksPerCategory, parser.CategoryLayout,
			func(page int) string {
				return fmt.Sprintf("%s/gp/bestsellers/%s/ref=zg_bs_pg_%d?ie=UTF8&pg=%d",
					e.normalizer.Origin(), category, page, page)
			})
	})
	if err != nil {
		return col.result(), fmt.Errorf("%s: category crawl aborted: %w", opn, err)
	}
	log.InfoContext(ctx, "Category crawl finished", "found", col.len(), "target", target)

	if !col.full() && len(e.opts.Surfaces) > 0 {
		err = e.fanOut(ctx, len(e.opts.Surfaces), func(gctx context.Context, i int) error {
			surface := e.opts.Surfaces[i]
			return e.crawl(gctx, col, SurfacePages, MaxLinksPerSurface, parser.SurfaceLayout,
				func(page int) string {
					return fmt.Sprintf("%s/gp/%s/%s/ref=zg_bsnr_pg_%d?ie=UTF8&pg=%d",
						e.normalizer.Origin(), surface.Base, surface.Category, page, page)
				})
		})
		if err != nil {
			return col.result(), fmt.Errorf("%s: surface crawl aborted: %w", opn, err)
		}
	}

	urls := col.result()
	log.InfoContext(ctx, "Discovery finished", "found", len(urls), "target", target)

	return urls, nil
}

// Search returns at most maxResults canonical URLs from the keyword search page.
// A failed fetch yields no URLs; only a proxy credential failure is returned as an error.
func (e *Engine) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	const opn = "discovery.Search"
	log := e.log.With("op", opn)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = DefaultSearchMax
	}

	searchURL := fmt.Sprintf("%s/s?k=%s&page=1", e.normalizer.Origin(), url.QueryEscape(query))
	links, err := e.fetchListing(ctx, searchURL, parser.SearchLayout)
	if err != nil {
		if errors.Is(err, fetcher.ErrProxyAuth) {
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
		log.WarnContext(ctx, "Search page failed", "query", query, "error", err)
		return nil, nil
	}

	col := newCollector(maxResults)
	for _, link := range links {
		if col.full() {
			break
		}
		col.add(e.normalizer.Identity(link))
	}

	urls := col.result()
	log.InfoContext(ctx, "Search finished", "query", query, "found", len(urls))

	return urls, nil
}

// pagesFor scales the page budget of one category to what is still missing.
func (e *Engine) pagesFor(remaining int) int {
	if remaining <= 0 {
		return 0
	}
	perPage := len(e.opts.Categories) * LinksPerPageEstimate
	pages := (remaining + perPage - 1) / perPage
	return max(1, min(MaxPagesPerCategory, pages))
}

func (e *Engine) fanOut(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i := range n {
		g.Go(func() error { return task(gctx, i) })
	}

	return g.Wait()
}

// crawl walks the pages of one listing until its link budget or the global target is reached.
func (e *Engine) crawl(
	ctx context.Context,
	col *collector,
	pages, maxLinks int,
	layout parser.ListingLayout,
	pageURL func(page int) string,
) error {
	accepted := 0
	for page := 1; page <= pages; page++ {
		if col.full() || accepted >= maxLinks {
			return nil
		}
		if page > 1 {
			if err := sleep(ctx, e.opts.PageDelay); err != nil {
				return err
			}
		}

		listingURL := pageURL(page)
		links, err := e.fetchListing(ctx, listingURL, layout)
		if err != nil {
			if errors.Is(err, fetcher.ErrProxyAuth) || ctx.Err() != nil {
				return err
			}
			e.log.WarnContext(ctx, "Listing page skipped", "url", listingURL, "error", err)
			continue
		}

		for _, link := range links {
			if accepted >= maxLinks {
				break
			}
			if col.add(e.normalizer.Identity(link)) {
				accepted++
			}
		}
	}

	return nil
}

func (e *Engine) fetchListing(ctx context.Context, listingURL string, layout parser.ListingLayout) ([]string, error) {
	body, err := e.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, err
	}
	return e.parser.ParseListing(ctx, bytes.NewReader(body), layout)
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

// collector accumulates unique URLs across concurrent crawls, keyed by both URL and product id.
type collector struct {
	mu     sync.Mutex
	index  *identity.Index
	urls   []string
	target int
}

func newCollector(target int) *collector {
	return &collector{index: identity.NewIndex(nil), target: target}
}

// add records the URL unless it is empty, already known by either key, or the target is reached.
func (c *collector) add(url, productID string) bool {
	if url == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.urls) >= c.target || c.index.Contains(url, productID) {
		return false
	}
	c.index.Add(url, productID)
	c.urls = append(c.urls, url)

	return true
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.urls)
}

func (c *collector) remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target - len(c.urls)
}

func (c *collector) full() bool {
	return c.remaining() <= 0
}

func (c *collector) result() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.urls...)
}
