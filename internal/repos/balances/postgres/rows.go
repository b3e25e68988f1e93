package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// ensureUser registers userID at the starting balance if absent.
func (r *ledgerRepo) ensureUser(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO balances (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, r.starting)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	return nil
}

func lockAndGetBalance(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	var balance int64

	err := tx.QueryRowContext(ctx, `
		SELECT balance
		FROM balances
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}
