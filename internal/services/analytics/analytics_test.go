package analytics_test

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/Houeta/price-radar/internal/models"
	"github.com/Houeta/price-radar/internal/services/analytics"
	"github.com/Houeta/price-radar/test/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(url, category, price string, discount int, stars float64, reviews int, outOfStock bool) models.Product {
	return models.Product{
		URL:          url,
		Title:        "Title " + url,
		Category:     category,
		CurrentPrice: decimal.RequireFromString(price),
		DiscountRate: discount,
		Stars:        stars,
		ReviewsCount: reviews,
		IsOutOfStock: outOfStock,
	}
}

func catalog() []models.Product {
	return []models.Product{
		product("a", "Electronics", "10", 20, 4.5, 100, false),
		product("b", "Electronics", "30", 0, 0, 0, true),
		product("c", "Books", "75.50", 5, 3.9, 12, false),
		product("d", "", "600", 50, 4.8, 3, false),
		product("e", "Books", "0", 0, 0, 0, false),
	}
}

func newService(t *testing.T, products []models.Product, err error) *analytics.Service {
	t.Helper()
	repo := mocks.NewProductRepository(t)
	repo.On("ListProducts", t.Context()).Return(products, err).Once()
	return analytics.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
}

func TestService_PriceAnalysis(t *testing.T) {
	// Arrange
	s := newService(t, catalog(), nil)

	// Act
	result, err := s.PriceAnalysis(t.Context())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalProducts)
	assert.Equal(t, "178.88", result.AveragePrice.String())
	assert.Equal(t, "52.75", result.MedianPrice.String())
	assert.Equal(t, "10", result.MinPrice.String())
	assert.Equal(t, "600", result.MaxPrice.String())

	require.Len(t, result.PriceRanges, 6)
	counts := make(map[string]int)
	for _, r := range result.PriceRanges {
		counts[r.Range] = r.Count
	}
	assert.Equal(t, map[string]int{
		"$0 - $25":    1,
		"$25 - $50":   1,
		"$50 - $100":  1,
		"$100 - $250": 0,
		"$250 - $500": 0,
		"$500+":       1,
	}, counts)
	assert.InDelta(t, 25.0, result.PriceRanges[0].Percentage, 1e-9)

	require.Len(t, result.PriceTrend, analytics.TrendDays)
}

func TestService_PriceAnalysis_Empty(t *testing.T) {
	s := newService(t, nil, nil)

	result, err := s.PriceAnalysis(t.Context())

	require.NoError(t, err)
	assert.Zero(t, result.TotalProducts)
	assert.True(t, result.AveragePrice.IsZero())
	assert.Empty(t, result.PriceRanges)
	assert.Empty(t, result.PriceTrend)
}

func TestService_CategoryAnalysis(t *testing.T) {
	// Arrange
	s := newService(t, catalog(), nil)

	// Act
	result, err := s.CategoryAnalysis(t.Context())

	// Assert
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalCategories)

	assert.Equal(t, "Books", result.Categories[0].Category)
	assert.Equal(t, 2, result.Categories[0].Count)
	assert.Equal(t, "75.5", result.Categories[0].AveragePrice.String())
	assert.InDelta(t, 40.0, result.Categories[0].Percentage, 1e-9)

	assert.Equal(t, "Electronics", result.Categories[1].Category)
	assert.Equal(t, "20", result.Categories[1].AveragePrice.String())

	assert.Equal(t, analytics.UncategorizedLabel, result.Categories[2].Category)
	assert.Equal(t, 1, result.Categories[2].Count)
}

func TestService_GeneralAnalysis(t *testing.T) {
	// Arrange
	products := catalog()
	for i := range 12 {
		products = append(products, product(fmt.Sprintf("x%d", i), "Toys", "5", 1, 1, 1, false))
	}
	s := newService(t, products, nil)

	// Act
	result, err := s.GeneralAnalysis(t.Context())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 17, result.TotalProducts)
	assert.Equal(t, 16, result.InStock)
	assert.Equal(t, 1, result.OutOfStock)
	assert.Equal(t, 127, result.TotalReviews)
	assert.InDelta(t, 5.8, result.AverageDiscount, 1e-9)
	assert.InDelta(t, 1.68, result.AverageRating, 1e-9)

	require.Len(t, result.TopDiscountedProducts, analytics.TopProductsLimit)
	assert.Equal(t, "d", result.TopDiscountedProducts[0].URL)
	assert.Equal(t, "a", result.TopDiscountedProducts[1].URL)
	assert.Equal(t, "c", result.TopDiscountedProducts[2].URL)

	require.Len(t, result.TopRatedProducts, analytics.TopProductsLimit)
	assert.Equal(t, "d", result.TopRatedProducts[0].URL)
	assert.InDelta(t, 4.8, result.TopRatedProducts[0].Stars, 1e-9)
}

func TestService_StoreError(t *testing.T) {
	errDB := errors.New("db down")

	_, err := newService(t, nil, errDB).PriceAnalysis(t.Context())
	require.ErrorIs(t, err, errDB)

	_, err = newService(t, nil, errDB).CategoryAnalysis(t.Context())
	require.ErrorIs(t, err, errDB)

	_, err = newService(t, nil, errDB).GeneralAnalysis(t.Context())
	require.ErrorIs(t, err, errDB)
	assert.Contains(t, err.Error(), "analytics.GeneralAnalysis")
}
