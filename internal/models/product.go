package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one observed price of a product.
type PricePoint struct {
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observedAt"`
}

// Product is a structure for storing one tracked marketplace listing.
//
// URL is the canonical product URL and the primary natural key. ProductID is the stable
// identifier derived from URL; it is empty when the URL shape does not carry one.
type Product struct {
	URL       string
	ProductID string

	Title       string
	Description string
	Currency    string
	ImageURL    string
	Category    string

	CurrentPrice  decimal.Decimal
	OriginalPrice decimal.Decimal
	LowestPrice   decimal.Decimal
	HighestPrice  decimal.Decimal
	AveragePrice  decimal.Decimal

	DiscountRate int
	IsOutOfStock bool
	ReviewsCount int
	Stars        float64

	// PriceHistory is append-only; insertion order is chronological order.
	PriceHistory []PricePoint

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is the pair of natural keys a stored product is known by.
type Identity struct {
	URL       string
	ProductID string
}
