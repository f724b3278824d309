package sqlite_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Unit Tests (using sqlmock for failure scenarios)
// =============================================================================

func TestSubscribeChat_Failure(t *testing.T) {
	// Arrange
	repo, mock := newMockedRepo(t)
	mock.ExpectExec("INSERT OR IGNORE INTO subscriptions").WillReturnError(assert.AnError)

	// Act
	err := repo.SubscribeChat(t.Context(), -123456789)

	// Assert
	require.ErrorContains(t, err, "repository.sqlite.SubscribeChat")
	require.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnsubscribeChat_Failure(t *testing.T) {
	// Arrange
	repo, mock := newMockedRepo(t)
	mock.ExpectExec("DELETE FROM subscriptions WHERE chat_id").WillReturnError(assert.AnError)

	// Act
	err := repo.UnsubscribeChat(t.Context(), -123456789)

	// Assert
	require.ErrorContains(t, err, "repository.sqlite.UnsubscribeChat")
	require.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubscribedChats_Failures(t *testing.T) {
	ctx := t.Context()

	t.Run("error: cannot execute query", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectQuery("SELECT chat_id FROM subscriptions").WillReturnError(assert.AnError)

		_, err := repo.GetSubscribedChats(ctx)

		require.ErrorContains(t, err, "repository.sqlite.GetSubscribedChats")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: failed to scan chat_id", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectQuery("SELECT chat_id FROM subscriptions").
			WillReturnRows(sqlmock.NewRows([]string{"chat_id"}).AddRow("invalid_id"))

		_, err := repo.GetSubscribedChats(ctx)

		require.ErrorContains(t, err, "failed to scan chat_id")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error: rows error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectQuery("SELECT chat_id FROM subscriptions").
			WillReturnRows(sqlmock.NewRows([]string{"chat_id"}).AddRow(1).RowError(0, assert.AnError))

		_, err := repo.GetSubscribedChats(ctx)

		require.ErrorContains(t, err, "rows iteration error")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// =============================================================================
// Integration Tests (using a real temporary database)
// =============================================================================

func TestSubscriptions_Integration(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	// Arrange: subscribe twice to check idempotency
	require.NoError(t, repo.SubscribeChat(ctx, 42))
	require.NoError(t, repo.SubscribeChat(ctx, 42))
	require.NoError(t, repo.SubscribeChat(ctx, -7))

	chats, err := repo.GetSubscribedChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-7, 42}, chats)

	// Act
	require.NoError(t, repo.UnsubscribeChat(ctx, 42))

	// Assert
	chats, err = repo.GetSubscribedChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-7}, chats)
}
