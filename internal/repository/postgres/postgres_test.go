package postgres_test

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Houeta/price-radar/internal/models"
	"github.com/Houeta/price-radar/internal/repository"
	"github.com/Houeta/price-radar/internal/repository/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo connects to the database named by PR_TEST_POSTGRES_DSN and starts from empty tables.
func newTestRepo(t *testing.T) *postgres.Repository {
	t.Helper()

	dsn := os.Getenv("PR_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PR_TEST_POSTGRES_DSN not set, skipping postgres integration test")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := postgres.NewRepository(t.Context(), logger, dsn, 2, false)
	require.NoError(t, err)

	_, err = repo.Pool().Exec(t.Context(), "TRUNCATE products, subscriptions")
	require.NoError(t, err)

	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func product(url, productID, title, price string) models.Product {
	observed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := decimal.RequireFromString(price)

	return models.Product{
		URL:           url,
		ProductID:     productID,
		Title:         title,
		Category:      "Electronics",
		CurrentPrice:  p,
		OriginalPrice: p,
		LowestPrice:   p,
		HighestPrice:  p,
		AveragePrice:  p,
		PriceHistory:  []models.PricePoint{{Price: p, ObservedAt: observed}},
		CreatedAt:     observed,
		UpdatedAt:     observed,
	}
}

func TestNewRepository_InvalidDSN(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := postgres.NewRepository(t.Context(), logger, "postgres://%zz", 1, false)

	require.ErrorContains(t, err, "failed to parse postgres DSN")
}

func TestProducts_Integration(t *testing.T) {
	repo := newTestRepo(t)
	ctx := t.Context()

	speaker := product("https://www.amazon.com/dp/B000000010", "B000000010", "Bluetooth Speaker", "45.50")
	stand := product("https://www.amazon.com/desk-stand", "", "Desk Stand", "19")

	require.NoError(t, repo.InsertMany(ctx, []models.Product{speaker, stand}))

	got, err := repo.GetByURL(ctx, speaker.URL)
	require.NoError(t, err)
	assert.Equal(t, "45.5", got.CurrentPrice.String())
	require.Len(t, got.PriceHistory, 1)

	ids, err := repo.FindIdentities(ctx, []string{stand.URL}, []string{"B000000010"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.Identity{{URL: stand.URL}, {URL: speaker.URL, ProductID: "B000000010"}}, ids)

	err = repo.InsertOne(ctx, product("https://www.amazon.com/x", "B000000010", "dup", "1"))
	require.ErrorIs(t, err, repository.ErrDuplicate)

	speaker.CurrentPrice = decimal.RequireFromString("40")
	require.NoError(t, repo.UpsertByURL(ctx, speaker))
	got, err = repo.GetByURL(ctx, speaker.URL)
	require.NoError(t, err)
	assert.Equal(t, "40", got.CurrentPrice.String())

	found, err := repo.Search(ctx, "BLUETOOTH", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = repo.GetByURL(ctx, "https://www.amazon.com/missing")
	require.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestSubscriptions_Integration(t *testing.T) {
	repo := newTestRepo(t)
	ctx := t.Context()

	require.NoError(t, repo.SubscribeChat(ctx, 5))
	require.NoError(t, repo.SubscribeChat(ctx, 5))
	require.NoError(t, repo.SubscribeChat(ctx, 1))
	require.NoError(t, repo.UnsubscribeChat(ctx, 5))

	chats, err := repo.GetSubscribedChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, chats)
}
