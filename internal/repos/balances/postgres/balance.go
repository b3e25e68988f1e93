package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinvault/internal/repos/balances"
)

// Balance reads without locking. Unknown users read as the starting balance.
func (r *ledgerRepo) Balance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, balances.ErrInvalidUser
	}

	var balance int64

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM balances
		WHERE user_id = $1
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.starting, nil
		}

		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}
