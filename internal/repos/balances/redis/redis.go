// Package redis keeps balances as integer strings under one key per user.
// Credit and debit are Lua scripts, so each is a single atomic step on the
// server.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/fastprodman/coinvault/internal/repos/balances"
	redis "github.com/redis/go-redis/v9"
)

// Scripts never do arithmetic on balances in Lua, whose numbers are doubles:
// INCRBY/DECRBY do the math and the new balance is returned via GET as a
// string. -1 signals overflow (credit) or insufficient funds (debit). A key
// created by SET NX is removed again when the operation fails.
const creditScript = `
local created = redis.call("SET", KEYS[1], ARGV[2], "NX")
local res = redis.pcall("INCRBY", KEYS[1], ARGV[1])
if type(res) == "table" and res.err then
  if created then
    redis.call("DEL", KEYS[1])
  end
  if string.find(res.err, "overflow") then
    return -1
  end
  return res
end
return redis.call("GET", KEYS[1])
`

const debitScript = `
local created = redis.call("SET", KEYS[1], ARGV[2], "NX")
local left = redis.call("DECRBY", KEYS[1], ARGV[1])
if left < 0 then
  if created then
    redis.call("DEL", KEYS[1])
  else
    redis.call("INCRBY", KEYS[1], ARGV[1])
  end
  return -1
end
return redis.call("GET", KEYS[1])
`

var _ balances.Ledger = (*Ledger)(nil)

type Ledger struct {
	client   redis.UniversalClient
	prefix   string
	starting int64
	credit   *redis.Script
	debit    *redis.Script
}

func New(client redis.UniversalClient, keyPrefix string, starting int64) *Ledger {
	if starting < 0 {
		starting = 0
	}

	return &Ledger{
		client:   client,
		prefix:   keyPrefix,
		starting: starting,
		credit:   redis.NewScript(creditScript),
		debit:    redis.NewScript(debitScript),
	}
}

func (l *Ledger) key(userID string) string {
	return l.prefix + userID
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, balances.ErrInvalidUser
	}

	bal, err := l.client.Get(ctx, l.key(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return l.starting, nil
		}

		return 0, fmt.Errorf("get balance: %w", err)
	}

	return bal, nil
}

func (l *Ledger) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	err := balances.Validate(userID, amount)
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}

	bal, err := l.credit.Run(ctx, l.client, []string{l.key(userID)}, amount, l.starting).Int64()
	if err != nil {
		return 0, fmt.Errorf("credit script: %w", err)
	}

	if bal < 0 {
		return 0, fmt.Errorf("credit: %w", balances.ErrBalanceOverflow)
	}

	return bal, nil
}

func (l *Ledger) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	err := balances.Validate(userID, amount)
	if err != nil {
		return 0, fmt.Errorf("debit: %w", err)
	}

	bal, err := l.debit.Run(ctx, l.client, []string{l.key(userID)}, amount, l.starting).Int64()
	if err != nil {
		return 0, fmt.Errorf("debit script: %w", err)
	}

	if bal < 0 {
		return 0, balances.ErrInsufficientFunds
	}

	return bal, nil
}
