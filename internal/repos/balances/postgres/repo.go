// Package postgres is the durable ledger backend. Each mutation runs in its own
// transaction and locks the user's row for its duration.
package postgres

import (
	"context"
	"database/sql"

	"github.com/fastprodman/coinvault/internal/infra/pgutils"
	"github.com/fastprodman/coinvault/internal/repos/balances"
)

var _ balances.Ledger = (*ledgerRepo)(nil)

type ledgerRepo struct {
	db       *sql.DB
	starting int64
}

func New(db *sql.DB, starting int64) *ledgerRepo {
	if starting < 0 {
		starting = 0
	}

	return &ledgerRepo{db: db, starting: starting}
}

const maxTxAttempts = 3

// inTx runs fn in a transaction, retrying on serialization failures and
// deadlocks.
func (r *ledgerRepo) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	var err error

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = pgutils.WithTx(ctx, r.db, fn)
		if err == nil || !pgutils.IsRetryable(err) {
			return err
		}
	}

	return err
}
