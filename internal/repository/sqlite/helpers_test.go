package sqlite_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Houeta/price-radar/internal/models"
	"github.com/Houeta/price-radar/internal/repository/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newTestDB is a helper function that creates a temporary database for a test.
func newTestDB(t *testing.T) *sqlite.Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := sqlite.NewRepository(t.Context(), logger, dbPath)
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		if err = repo.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	return repo
}

// newMockedRepo creates a repository with a mocked database connection for testing failures.
func newMockedRepo(t *testing.T) (*sqlite.Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := sqlite.NewForTest(mockDB)

	t.Cleanup(func() { mockDB.Close() })

	return repo, mock
}

func sampleProduct(url, productID, title, price string) models.Product {
	observed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := decimal.RequireFromString(price)

	return models.Product{
		URL:           url,
		ProductID:     productID,
		Title:         title,
		Description:   "A " + title,
		Currency:      "$",
		Category:      "Electronics",
		CurrentPrice:  p,
		OriginalPrice: p,
		LowestPrice:   p,
		HighestPrice:  p,
		AveragePrice:  p,
		ReviewsCount:  10,
		Stars:         4.5,
		PriceHistory:  []models.PricePoint{{Price: p, ObservedAt: observed}},
		CreatedAt:     observed,
		UpdatedAt:     observed,
	}
}
