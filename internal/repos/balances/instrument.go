package balances

import (
	"context"
	"errors"
)

// Observer receives one call per ledger mutation.
type Observer interface {
	ObserveLedgerOp(op, result string)
}

// Instrument wraps l so that every Credit and Debit is reported to obs.
// A nil obs returns l unchanged.
func Instrument(l Ledger, obs Observer) Ledger {
	if obs == nil {
		return l
	}

	return &instrumented{next: l, obs: obs}
}

type instrumented struct {
	next Ledger
	obs  Observer
}

func (i *instrumented) Balance(ctx context.Context, userID string) (int64, error) {
	return i.next.Balance(ctx, userID)
}

func (i *instrumented) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	bal, err := i.next.Credit(ctx, userID, amount)
	i.obs.ObserveLedgerOp("credit", result(err))

	return bal, err
}

func (i *instrumented) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	bal, err := i.next.Debit(ctx, userID, amount)
	i.obs.ObserveLedgerOp("debit", result(err))

	return bal, err
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidUser), errors.Is(err, ErrBalanceOverflow):
		return "invalid"
	default:
		return "error"
	}
}
