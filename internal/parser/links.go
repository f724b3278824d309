package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ProductLinkSelector matches anchors pointing at product detail pages.
const ProductLinkSelector = `a[href*="/dp/"], a[href*="/gp/product/"]`

// ListingLayout describes where product links live on a listing page.
type ListingLayout struct {
	// Container selects result cards; empty means the whole document is one container.
	Container string
	// Link selects the anchor inside a container; only the first match per container is used.
	// With an empty Container every match is used.
	Link string
	// Limit caps the number of links returned; non-positive means unlimited.
	Limit int
}

var (
	// CategoryLayout covers bestseller category pages.
	CategoryLayout = ListingLayout{
		Container: `[data-component-type="s-search-result"], .zg-item-immersion, .p13n-sc-uncoverable-faceout, .p13n-sc-truncated`,
		Link:      ProductLinkSelector,
		Limit:     100,
	}
	// SurfaceLayout covers new-release and movers pages, which are scanned for any product anchor.
	// A product renders several anchors there, so the caller caps unique links instead.
	SurfaceLayout = ListingLayout{
		Link: ProductLinkSelector,
	}
	// SearchLayout covers keyword search result pages.
	SearchLayout = ListingLayout{
		Container: `[data-component-type="s-search-result"]`,
		Link:      `h2 a, a.a-link-normal[href*="/dp/"]`,
		Limit:     0,
	}
)

// ExtractLinks scans doc for product hrefs according to layout.
func ExtractLinks(doc *goquery.Document, layout ListingLayout) []string {
	if doc == nil || layout.Link == "" {
		return nil
	}

	var links []string
	full := func() bool { return layout.Limit > 0 && len(links) >= layout.Limit }
	add := func(s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if ok && href != "" {
			links = append(links, href)
		}
	}

	if layout.Container == "" {
		doc.Find(layout.Link).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			add(s)
			return !full()
		})
		return links
	}

	doc.Find(layout.Container).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		add(s.Find(layout.Link).First())
		return !full()
	})

	return links
}
