package redis

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/fastprodman/coinvault/internal/config"
	"github.com/fastprodman/coinvault/internal/infra/redisutil"
	"github.com/fastprodman/coinvault/internal/repos/balances"
	"github.com/fastprodman/coinvault/internal/repos/balances/ledgertest"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// newTestClient connects to REDIS_ADDR or skips the test.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(t.Context(), 3*time.Second)
	defer cancel()

	client, err := redisutil.Connect(ctx, config.RedisConfig{Addr: addr})
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client
}

// newTestLedger scopes keys to a random prefix and deletes them afterwards.
func newTestLedger(t *testing.T, starting int64) *Ledger {
	t.Helper()

	client := newTestClient(t)
	prefix := "coinvault:test:" + uuid.NewString() + ":"

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		keys, err := client.Keys(ctx, prefix+"*").Result()
		if err == nil && len(keys) > 0 {
			_ = client.Del(ctx, keys...).Err()
		}
	})

	return New(client, prefix, starting)
}

func TestLedger_Suite(t *testing.T) {
	t.Parallel()

	ledgertest.Run(t, func(t *testing.T) balances.Ledger { return newTestLedger(t, 0) })
}

func TestLedger_StartingBalanceAppliedOnFirstWrite(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t, 2000)

	bal, err := l.Credit(t.Context(), "promo", 100)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if bal != 2100 {
		t.Fatalf("want 2100, got %d", bal)
	}

	bal, err = l.Debit(t.Context(), "fresh", 1500)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if bal != 500 {
		t.Fatalf("want 500, got %d", bal)
	}
}

func TestLedger_FailedOpsLeaveNoKey(t *testing.T) {
	t.Parallel()

	l := newTestLedger(t, 100)

	_, err := l.Debit(t.Context(), "late", 500)
	if !errors.Is(err, balances.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}

	_, err = l.Credit(t.Context(), "late", math.MaxInt64)
	if !errors.Is(err, balances.ErrBalanceOverflow) {
		t.Fatalf("want ErrBalanceOverflow, got %v", err)
	}

	n, err := l.client.Exists(t.Context(), l.key("late")).Result()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if n != 0 {
		t.Fatalf("failed operations must not create the key")
	}
}
