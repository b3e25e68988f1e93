package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/fastprodman/coinvault/internal/repos/balances"
)

func (r *ledgerRepo) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	err := balances.Validate(userID, amount)
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}

	var balance int64

	err = r.inTx(ctx, func(tx *sql.Tx) error {
		err := r.ensureUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE balances
			SET balance = balance + $2,
			    updated_at = now()
			WHERE user_id = $1
			  AND balance <= $3 - $2
			RETURNING balance
		`, userID, amount, int64(math.MaxInt64)).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return balances.ErrBalanceOverflow
		}
		if err != nil {
			return fmt.Errorf("increase balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}

	return balance, nil
}
