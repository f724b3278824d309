package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Houeta/price-radar/internal/identity"
	"github.com/Houeta/price-radar/internal/models"
	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// HTMLParser turns raw marketplace documents into records and links.
type HTMLParser interface {
	// ParseProduct parses a product detail page fetched from productURL.
	ParseProduct(ctx context.Context, inp io.Reader, productURL string) (models.Product, error)
	// ParseListing returns the product links found on a listing page.
	ParseListing(ctx context.Context, inp io.Reader, layout ListingLayout) ([]string, error)
}

// Parser is the goquery-backed HTMLParser.
type Parser struct {
	log        *slog.Logger
	normalizer *identity.Normalizer
}

func NewParser(log *slog.Logger, normalizer *identity.Normalizer) *Parser {
	return &Parser{log: log, normalizer: normalizer}
}

// ParseProduct extracts a product record. Missing page elements degrade to zero values;
// an error is returned only when the input cannot be read as HTML.
func (p *Parser) ParseProduct(ctx context.Context, inp io.Reader, productURL string) (models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(inp)
	if err != nil {
		return models.Product{}, fmt.Errorf("data cannot be parsed as HTML: %w", err)
	}

	currentText := ExtractPrice(
		doc.Find(".priceToPay span.a-price-whole"),
		doc.Find(".a.size.base.a-color-price"),
		doc.Find(".a-button-selected .a-color-base"),
	)
	originalText := ExtractPrice(
		doc.Find("#priceblock_ourprice"),
		doc.Find(".a-price.a-text-price span.a-offscreen"),
		doc.Find("#listPrice"),
		doc.Find("#priceblock_dealprice"),
		doc.Find(".a-size-base.a-color-price"),
	)

	current := parseDecimal(currentText)
	original := parseDecimal(originalText)
	if current.IsZero() {
		current = original
	}
	if original.IsZero() {
		original = current
	}

	canonical, productID := p.normalizer.Identity(productURL)
	product := models.Product{
		URL:           canonical,
		ProductID:     productID,
		Title:         strings.TrimSpace(doc.Find("#productTitle").First().Text()),
		Description:   ExtractDescription(doc),
		Currency:      ExtractCurrency(doc.Find(".a-price-symbol")),
		ImageURL:      ExtractImage(doc),
		Category:      ExtractCategory(doc),
		CurrentPrice:  current,
		OriginalPrice: original,
		DiscountRate:  ExtractDiscountRate(doc),
		IsOutOfStock:  ExtractStockStatus(doc),
		ReviewsCount:  ExtractReviewsCount(doc),
		Stars:         ExtractStars(doc),
	}

	p.log.DebugContext(
		ctx,
		"Parsed product",
		"url", product.URL,
		"price", product.CurrentPrice.String(),
		"out_of_stock", product.IsOutOfStock,
	)

	return product, nil
}

// ParseListing collects product links from a listing page according to layout.
// Links are returned raw (as they appear in the markup); normalization is the caller's job.
func (p *Parser) ParseListing(ctx context.Context, inp io.Reader, layout ListingLayout) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(inp)
	if err != nil {
		return nil, fmt.Errorf("data cannot be parsed as HTML: %w", err)
	}

	links := ExtractLinks(doc, layout)
	p.log.DebugContext(ctx, "Parsed listing", "links", len(links), "limit", layout.Limit)

	return links, nil
}

func parseDecimal(text string) decimal.Decimal {
	if text == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(text)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
