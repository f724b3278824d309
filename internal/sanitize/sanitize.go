// Package sanitize bounds and cleans scraped text before it is considered for storage.
package sanitize

import (
	"errors"
	"strings"
	"unicode"

	"github.com/Houeta/price-radar/internal/identity"
	"github.com/Houeta/price-radar/internal/models"
	"github.com/shopspring/decimal"
)

// Length caps, in runes, applied to record text fields.
const (
	MaxTitleLength       = 500
	MaxDescriptionLength = 2000
	MaxImageURLLength    = 500
	MaxCurrencyLength    = 10
	MaxURLLength         = identity.MaxURLLength
	MaxCategoryLength    = 200
)

var (
	ErrMissingTitle = errors.New("record has no title after sanitation")
	ErrMissingURL   = errors.New("record has no url after sanitation")
)

// Text limits s to maxLength runes, drops control characters and trims surrounding space.
func Text(s string, maxLength int) string {
	if s == "" || maxLength <= 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(min(len(s), maxLength*4))

	kept := 0
	for _, r := range s {
		if kept >= maxLength {
			break
		}
		kept++
		if r == unicode.ReplacementChar || unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// Product returns a sanitized copy of p, or an error if a required field is empty afterwards.
// A rejected record must not be stored at all.
func Product(p models.Product) (models.Product, error) {
	p.URL = Text(p.URL, MaxURLLength)
	p.Title = Text(p.Title, MaxTitleLength)
	p.Description = Text(p.Description, MaxDescriptionLength)
	p.ImageURL = Text(p.ImageURL, MaxImageURLLength)
	p.Currency = Text(p.Currency, MaxCurrencyLength)
	p.Category = Text(p.Category, MaxCategoryLength)
	p.ProductID = Text(p.ProductID, MaxURLLength)

	p.CurrentPrice = nonNegative(p.CurrentPrice)
	p.OriginalPrice = nonNegative(p.OriginalPrice)
	if p.DiscountRate < 0 {
		p.DiscountRate = 0
	}
	if p.ReviewsCount < 0 {
		p.ReviewsCount = 0
	}
	if p.Stars < 0 {
		p.Stars = 0
	}

	if p.URL == "" {
		return models.Product{}, ErrMissingURL
	}
	if p.Title == "" {
		return models.Product{}, ErrMissingTitle
	}

	return p, nil
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
