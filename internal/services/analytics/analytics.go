package analytics

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/Houeta/price-radar/internal/models"
	"github.com/shopspring/decimal"
)

const (
	TrendDays           = 7
	TopProductsLimit    = 10
	UncategorizedLabel  = "Uncategorized"
	priceRoundingPlaces = 2
)

// priceRanges are the fixed buckets of the price distribution; Max is exclusive, nil means unbounded.
var priceRanges = []struct {
	Label string
	Min   decimal.Decimal
	Max   *decimal.Decimal
}{
	{"$0 - $25", decimal.Zero, ptr(decimal.NewFromInt(25))},
	{"$25 - $50", decimal.NewFromInt(25), ptr(decimal.NewFromInt(50))},
	{"$50 - $100", decimal.NewFromInt(50), ptr(decimal.NewFromInt(100))},
	{"$100 - $250", decimal.NewFromInt(100), ptr(decimal.NewFromInt(250))},
	{"$250 - $500", decimal.NewFromInt(250), ptr(decimal.NewFromInt(500))},
	{"$500+", decimal.NewFromInt(500), nil},
}

// ProductLister is the read side of the store the analytics run over.
type ProductLister interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type PriceRange struct {
	Range      string
	Count      int
	Percentage float64
}

type TrendPoint struct {
	Date         string
	AveragePrice decimal.Decimal
}

type PriceAnalysis struct {
	TotalProducts int
	AveragePrice  decimal.Decimal
	MedianPrice   decimal.Decimal
	MinPrice      decimal.Decimal
	MaxPrice      decimal.Decimal
	PriceRanges   []PriceRange
	PriceTrend    []TrendPoint
}

type CategoryStats struct {
	Category     string
	Count        int
	AveragePrice decimal.Decimal
	Percentage   float64
}

type CategoryAnalysis struct {
	Categories      []CategoryStats
	TotalCategories int
}

type DiscountedProduct struct {
	Title        string
	DiscountRate int
	CurrentPrice decimal.Decimal
	URL          string
}

type RatedProduct struct {
	Title        string
	Stars        float64
	ReviewsCount int
	URL          string
}

type GeneralAnalysis struct {
	TotalProducts         int
	InStock               int
	OutOfStock            int
	AverageDiscount       float64
	AverageRating         float64
	TotalReviews          int
	TopDiscountedProducts []DiscountedProduct
	TopRatedProducts      []RatedProduct
}

// Service computes aggregate views over every stored product.
type Service struct {
	log  *slog.Logger
	repo ProductLister
	now  func() time.Time
}

// NewService creates a new analytics Service.
func NewService(log *slog.Logger, repo ProductLister) *Service {
	return &Service{log: log, repo: repo, now: time.Now}
}

// PriceAnalysis summarizes current prices. Records without a positive price are left out of the price figures.
func (s *Service) PriceAnalysis(ctx context.Context) (PriceAnalysis, error) {
	const opn = "analytics.PriceAnalysis"

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return PriceAnalysis{}, fmt.Errorf("%s: failed to list products: %w", opn, err)
	}
	s.log.DebugContext(ctx, "Computing price analysis", "op", opn, "products", len(products))

	return priceAnalysis(products, s.now().UTC()), nil
}

// CategoryAnalysis groups products by category, largest first.
func (s *Service) CategoryAnalysis(ctx context.Context) (CategoryAnalysis, error) {
	const opn = "analytics.CategoryAnalysis"

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return CategoryAnalysis{}, fmt.Errorf("%s: failed to list products: %w", opn, err)
	}

	return categoryAnalysis(products), nil
}

// GeneralAnalysis reports stock, discount and rating figures.
func (s *Service) GeneralAnalysis(ctx context.Context) (GeneralAnalysis, error) {
	const opn = "analytics.GeneralAnalysis"

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return GeneralAnalysis{}, fmt.Errorf("%s: failed to list products: %w", opn, err)
	}

	return generalAnalysis(products), nil
}

func priceAnalysis(products []models.Product, now time.Time) PriceAnalysis {
	result := PriceAnalysis{
		TotalProducts: len(products),
		AveragePrice:  decimal.Zero,
		MedianPrice:   decimal.Zero,
		MinPrice:      decimal.Zero,
		MaxPrice:      decimal.Zero,
	}
	if len(products) == 0 {
		return result
	}

	var prices []decimal.Decimal
	for _, p := range products {
		if p.CurrentPrice.IsPositive() {
			prices = append(prices, p.CurrentPrice)
		}
	}

	if len(prices) > 0 {
		sorted := slices.Clone(prices)
		slices.SortFunc(sorted, func(a, b decimal.Decimal) int { return a.Cmp(b) })

		result.AveragePrice = mean(prices).Round(priceRoundingPlaces)
		result.MedianPrice = median(sorted).Round(priceRoundingPlaces)
		result.MinPrice = sorted[0]
		result.MaxPrice = sorted[len(sorted)-1]
	}

	result.PriceRanges = make([]PriceRange, 0, len(priceRanges))
	for _, r := range priceRanges {
		count := 0
		for _, price := range prices {
			if price.GreaterThanOrEqual(r.Min) && (r.Max == nil || price.LessThan(*r.Max)) {
				count++
			}
		}
		result.PriceRanges = append(result.PriceRanges, PriceRange{
			Range:      r.Label,
			Count:      count,
			Percentage: percentage(count, len(prices)),
		})
	}

	result.PriceTrend = priceTrend(products, now)
	return result
}

// priceTrend averages, per day, the first observation made that day or the current price when there is none.
func priceTrend(products []models.Product, now time.Time) []TrendPoint {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	trend := make([]TrendPoint, 0, TrendDays)

	for i := TrendDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := day.Format(time.DateOnly)

		total := decimal.Zero
		count := 0
		for _, p := range products {
			if point, ok := observedOn(p.PriceHistory, key); ok {
				total = total.Add(point.Price)
				count++
				continue
			}
			if p.CurrentPrice.IsPositive() {
				total = total.Add(p.CurrentPrice)
				count++
			}
		}

		avg := decimal.Zero
		if count > 0 {
			avg = total.Div(decimal.NewFromInt(int64(count)))
		}
		trend = append(trend, TrendPoint{Date: key, AveragePrice: avg})
	}
	return trend
}

func observedOn(history []models.PricePoint, day string) (models.PricePoint, bool) {
	for _, point := range history {
		if point.ObservedAt.UTC().Format(time.DateOnly) == day {
			return point, true
		}
	}
	return models.PricePoint{}, false
}

func categoryAnalysis(products []models.Product) CategoryAnalysis {
	type bucket struct {
		count  int
		prices []decimal.Decimal
	}

	buckets := make(map[string]*bucket)
	for _, p := range products {
		name := p.Category
		if name == "" {
			name = UncategorizedLabel
		}
		b, ok := buckets[name]
		if !ok {
			b = &bucket{}
			buckets[name] = b
		}
		b.count++
		if p.CurrentPrice.IsPositive() {
			b.prices = append(b.prices, p.CurrentPrice)
		}
	}

	categories := make([]CategoryStats, 0, len(buckets))
	for name, b := range buckets {
		avg := decimal.Zero
		if len(b.prices) > 0 {
			avg = mean(b.prices).Round(priceRoundingPlaces)
		}
		categories = append(categories, CategoryStats{
			Category:     name,
			Count:        b.count,
			AveragePrice: avg,
			Percentage:   percentage(b.count, len(products)),
		})
	}
	slices.SortFunc(categories, func(a, b CategoryStats) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	return CategoryAnalysis{Categories: categories, TotalCategories: len(categories)}
}

func generalAnalysis(products []models.Product) GeneralAnalysis {
	result := GeneralAnalysis{TotalProducts: len(products)}

	var discountSum, discountCount int
	var ratingSum float64
	var ratingCount int
	for _, p := range products {
		if p.IsOutOfStock {
			result.OutOfStock++
		} else {
			result.InStock++
		}
		if p.DiscountRate > 0 {
			discountSum += p.DiscountRate
			discountCount++
		}
		if p.Stars > 0 {
			ratingSum += p.Stars
			ratingCount++
		}
		result.TotalReviews += p.ReviewsCount
	}
	if discountCount > 0 {
		result.AverageDiscount = round2(float64(discountSum) / float64(discountCount))
	}
	if ratingCount > 0 {
		result.AverageRating = round2(ratingSum / float64(ratingCount))
	}

	discounted := slices.DeleteFunc(slices.Clone(products), func(p models.Product) bool { return p.DiscountRate <= 0 })
	slices.SortStableFunc(discounted, func(a, b models.Product) int { return cmp.Compare(b.DiscountRate, a.DiscountRate) })
	for _, p := range discounted[:min(len(discounted), TopProductsLimit)] {
		result.TopDiscountedProducts = append(result.TopDiscountedProducts, DiscountedProduct{
			Title:        p.Title,
			DiscountRate: p.DiscountRate,
			CurrentPrice: p.CurrentPrice,
			URL:          p.URL,
		})
	}

	rated := slices.DeleteFunc(slices.Clone(products), func(p models.Product) bool { return p.Stars <= 0 })
	slices.SortStableFunc(rated, func(a, b models.Product) int { return cmp.Compare(b.Stars, a.Stars) })
	for _, p := range rated[:min(len(rated), TopProductsLimit)] {
		result.TopRatedProducts = append(result.TopRatedProducts, RatedProduct{
			Title:        p.Title,
			Stars:        p.Stars,
			ReviewsCount: p.ReviewsCount,
			URL:          p.URL,
		})
	}

	return result
}

func mean(values []decimal.Decimal) decimal.Decimal {
	return decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values))))
}

// median expects sorted input.
func median(sorted []decimal.Decimal) decimal.Decimal {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr[T any](v T) *T {
	return &v
}
