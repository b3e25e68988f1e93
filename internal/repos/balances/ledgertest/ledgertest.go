// Package ledgertest holds the behavioral suite every ledger backend must pass.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fastprodman/coinvault/internal/repos/balances"
)

// Factory returns a fresh, empty ledger with a zero starting balance.
// Distinct calls must not share state.
type Factory func(t *testing.T) balances.Ledger

// Run executes the suite against ledgers produced by newLedger.
func Run(t *testing.T, newLedger Factory) {
	t.Helper()

	t.Run("unknown_user_reads_zero", func(t *testing.T) {
		l := newLedger(t)
		ctx := timeoutCtx(t)

		bal, err := l.Balance(ctx, "ghost")
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if bal != 0 {
			t.Fatalf("want 0, got %d", bal)
		}
	})

	t.Run("first_credit_has_no_phantom_bonus", func(t *testing.T) {
		l := newLedger(t)
		ctx := timeoutCtx(t)

		bal, err := l.Credit(ctx, "u1", 1000)
		if err != nil {
			t.Fatalf("credit: %v", err)
		}
		if bal != 1000 {
			t.Fatalf("want 1000, got %d", bal)
		}
	})

	t.Run("credit_twice_accumulates", func(t *testing.T) {
		l := newLedger(t)
		ctx := timeoutCtx(t)

		for range 2 {
			_, err := l.Credit(ctx, "u2", 1000)
			if err != nil {
				t.Fatalf("credit: %v", err)
			}
		}

		bal := mustBalance(t, l, "u2")
		if bal != 2000 {
			t.Fatalf("want 2000, got %d", bal)
		}
	})

	t.Run("debit_exact_to_zero", func(t *testing.T) {
		l := newLedger(t)
		ctx := timeoutCtx(t)
		seed(t, l, "u3", 300)

		bal, err := l.Debit(ctx, "u3", 300)
		if err != nil {
			t.Fatalf("debit: %v", err)
		}
		if bal != 0 {
			t.Fatalf("want 0, got %d", bal)
		}
	})

	t.Run("insufficient_funds_balance_unchanged", func(t *testing.T) {
		l := newLedger(t)
		ctx := timeoutCtx(t)
		seed(t, l, "u4", 500)

		_, err := l.Debit(ctx, "u4", 600)
		if !errors.Is(err, balances.ErrInsufficientFunds) {
			t.Fatalf("want ErrInsufficientFunds, got %v", err)
		}

		bal := mustBalance(t, l, "u4")
		if bal != 500 {
			t.Fatalf("balance changed: want 500, got %d", bal)
		}
	})

	t.Run("unknown_user_debit_is_insufficient", func(t *testing.T) {
		l := newLedger(t)
		ctx := timeoutCtx(t)

		_, err := l.Debit(ctx, "nobody", 1)
		if !errors.Is(err, balances.ErrInsufficientFunds) {
			t.Fatalf("want ErrInsufficientFunds, got %v", err)
		}
	})

	t.Run("invalid_arguments", func(t *testing.T) {
		l := newLedger(t)
		ctx := timeoutCtx(t)

		_, err := l.Credit(ctx, "u5", 0)
		if !errors.Is(err, balances.ErrInvalidAmount) {
			t.Fatalf("credit 0: want ErrInvalidAmount, got %v", err)
		}

		_, err = l.Debit(ctx, "u5", -10)
		if !errors.Is(err, balances.ErrInvalidAmount) {
			t.Fatalf("debit -10: want ErrInvalidAmount, got %v", err)
		}

		_, err = l.Credit(ctx, "", 10)
		if !errors.Is(err, balances.ErrInvalidUser) {
			t.Fatalf("empty user: want ErrInvalidUser, got %v", err)
		}
	})

	t.Run("credit_overflow_rejected_balance_unchanged", func(t *testing.T) {
		l := newLedger(t)
		ctx := timeoutCtx(t)

		bal, err := l.Credit(ctx, "u7", math.MaxInt64)
		if err != nil {
			t.Fatalf("credit max: %v", err)
		}
		if bal != math.MaxInt64 {
			t.Fatalf("want MaxInt64, got %d", bal)
		}

		_, err = l.Credit(ctx, "u7", 1)
		if !errors.Is(err, balances.ErrBalanceOverflow) {
			t.Fatalf("want ErrBalanceOverflow, got %v", err)
		}

		bal = mustBalance(t, l, "u7")
		if bal != math.MaxInt64 {
			t.Fatalf("balance changed: want MaxInt64, got %d", bal)
		}

		bal, err = l.Debit(ctx, "u7", math.MaxInt64)
		if err != nil {
			t.Fatalf("debit max: %v", err)
		}
		if bal != 0 {
			t.Fatalf("want 0, got %d", bal)
		}
	})

	t.Run("concurrent_debits_never_overdraw", func(t *testing.T) {
		l := newLedger(t)
		seed(t, l, "u6", 500)

		var (
			wg           sync.WaitGroup
			successes    atomic.Int32
			insufficient atomic.Int32
			unexpected   = make(chan error, 10)
		)

		start := make(chan struct{})

		for range 10 {
			wg.Add(1)

			go func() {
				defer wg.Done()
				<-start

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				_, err := l.Debit(ctx, "u6", 100)

				switch {
				case err == nil:
					successes.Add(1)
				case errors.Is(err, balances.ErrInsufficientFunds):
					insufficient.Add(1)
				default:
					unexpected <- err
				}
			}()
		}

		close(start)
		wg.Wait()
		close(unexpected)

		for err := range unexpected {
			t.Fatalf("unexpected debit error: %v", err)
		}

		if successes.Load() != 5 || insufficient.Load() != 5 {
			t.Fatalf("want 5 ok / 5 insufficient, got %d / %d", successes.Load(), insufficient.Load())
		}

		bal := mustBalance(t, l, "u6")
		if bal != 0 {
			t.Fatalf("final balance: want 0, got %d", bal)
		}
	})
}

func timeoutCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	t.Cleanup(cancel)

	return ctx
}

func seed(t *testing.T, l balances.Ledger, userID string, amount int64) {
	t.Helper()

	_, err := l.Credit(timeoutCtx(t), userID, amount)
	if err != nil {
		t.Fatalf("seed %s: %v", userID, err)
	}
}

func mustBalance(t *testing.T, l balances.Ledger, userID string) int64 {
	t.Helper()

	bal, err := l.Balance(timeoutCtx(t), userID)
	if err != nil {
		t.Fatal(fmt.Errorf("balance %s: %w", userID, err))
	}

	return bal
}
