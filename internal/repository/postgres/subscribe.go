package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func (r *Repository) SubscribeChat(ctx context.Context, chatID int64) error {
	const opn = "repository.postgres.SubscribeChat"
	if _, err := r.pool.Exec(ctx,
		"INSERT INTO subscriptions (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING", chatID,
	); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

func (r *Repository) UnsubscribeChat(ctx context.Context, chatID int64) error {
	const opn = "repository.postgres.UnsubscribeChat"
	if _, err := r.pool.Exec(ctx, "DELETE FROM subscriptions WHERE chat_id = $1", chatID); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}
	return nil
}

func (r *Repository) GetSubscribedChats(ctx context.Context) ([]int64, error) {
	const opn = "repository.postgres.GetSubscribedChats"

	rows, err := r.pool.Query(ctx, "SELECT chat_id FROM subscriptions ORDER BY chat_id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	chatIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("%s: failed to scan chat_id: %w", opn, err)
	}

	return chatIDs, nil
}
