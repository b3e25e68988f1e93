// Package memory is the in-process ledger backend. State lives for the
// lifetime of the process.
package memory

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/fastprodman/coinvault/internal/repos/balances"
)

var _ balances.Ledger = (*Ledger)(nil)

type Ledger struct {
	mu       sync.Mutex
	balances map[string]int64
	starting int64
}

// New returns an empty ledger. Users are registered at starting on first
// credit or debit.
func New(starting int64) *Ledger {
	if starting < 0 {
		starting = 0
	}

	return &Ledger{
		balances: make(map[string]int64),
		starting: starting,
	}
}

func (l *Ledger) Balance(_ context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, balances.ErrInvalidUser
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[userID]
	if !ok {
		return l.starting, nil
	}

	return bal, nil
}

func (l *Ledger) Credit(_ context.Context, userID string, amount int64) (int64, error) {
	err := balances.Validate(userID, amount)
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.current(userID)
	if amount > math.MaxInt64-bal {
		return 0, fmt.Errorf("credit: %w", balances.ErrBalanceOverflow)
	}

	bal += amount
	l.balances[userID] = bal

	return bal, nil
}

func (l *Ledger) Debit(_ context.Context, userID string, amount int64) (int64, error) {
	err := balances.Validate(userID, amount)
	if err != nil {
		return 0, fmt.Errorf("debit: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.current(userID)
	if amount > bal {
		return 0, balances.ErrInsufficientFunds
	}

	bal -= amount
	l.balances[userID] = bal

	return bal, nil
}

// current is userID's balance, or the starting balance for a user not yet
// registered. Callers write the map only on success. Caller holds mu.
func (l *Ledger) current(userID string) int64 {
	bal, ok := l.balances[userID]
	if !ok {
		return l.starting
	}

	return bal
}
