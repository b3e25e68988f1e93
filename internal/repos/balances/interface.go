// Package balances defines the coin ledger: per-user non-negative coin
// balances with atomic credit and debit.
//
// Unknown users read as the starting balance without being created; the first
// Credit or Debit registers them at that balance.
package balances

import (
	"context"
	"errors"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidUser       = errors.New("user id required")
	ErrBalanceOverflow   = errors.New("balance would overflow")
)

// Ledger is implemented by the memory, postgres and redis backends.
type Ledger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	// Credit adds amount atomically. It fails with ErrBalanceOverflow, leaving
	// the balance untouched, when the result would not fit in an int64.
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
	// Debit subtracts amount atomically. It fails with ErrInsufficientFunds,
	// leaving the balance untouched, when amount exceeds the balance.
	Debit(ctx context.Context, userID string, amount int64) (int64, error)
}

// Validate checks the arguments shared by Credit and Debit.
func Validate(userID string, amount int64) error {
	if userID == "" {
		return ErrInvalidUser
	}

	if amount <= 0 {
		return ErrInvalidAmount
	}

	return nil
}
