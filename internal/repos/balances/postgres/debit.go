package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinvault/internal/repos/balances"
)

// Debit runs the full flow in a single DB transaction:
//
// 1) Ensure the user row exists.
// 2) Lock it (FOR UPDATE) and pre-check the balance.
// 3) Conditionally decrement (balance >= amount).
func (r *ledgerRepo) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	err := balances.Validate(userID, amount)
	if err != nil {
		return 0, fmt.Errorf("debit: %w", err)
	}

	var balance int64

	err = r.inTx(ctx, func(tx *sql.Tx) error {
		err := r.ensureUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		current, err := lockAndGetBalance(ctx, tx, userID)
		if err != nil {
			return err
		}

		if current < amount {
			return balances.ErrInsufficientFunds
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE balances
			SET balance = balance - $2,
			    updated_at = now()
			WHERE user_id = $1
			  AND balance >= $2
			RETURNING balance
		`, userID, amount).Scan(&balance)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return balances.ErrInsufficientFunds
			}

			return fmt.Errorf("decrease balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("debit: %w", err)
	}

	return balance, nil
}
