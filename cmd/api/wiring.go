package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/coinvault/internal/api"
	"github.com/fastprodman/coinvault/internal/config"
	"github.com/fastprodman/coinvault/internal/infra/pgutils"
	"github.com/fastprodman/coinvault/internal/infra/redisutil"
	"github.com/fastprodman/coinvault/internal/providers"
	"github.com/fastprodman/coinvault/internal/providers/coinbase"
	"github.com/fastprodman/coinvault/internal/providers/impact"
	"github.com/fastprodman/coinvault/internal/providers/ticketmaster"
	"github.com/fastprodman/coinvault/internal/repos/balances"
	memledger "github.com/fastprodman/coinvault/internal/repos/balances/memory"
	pgledger "github.com/fastprodman/coinvault/internal/repos/balances/postgres"
	redisledger "github.com/fastprodman/coinvault/internal/repos/balances/redis"
	"github.com/fastprodman/coinvault/internal/repos/redemptions"
	memaudit "github.com/fastprodman/coinvault/internal/repos/redemptions/memory"
	pgaudit "github.com/fastprodman/coinvault/internal/repos/redemptions/postgres"
	"github.com/fastprodman/coinvault/pkg/shutdownqueue"
)

// stores holds the backends chosen by configuration plus their health checks.
type stores struct {
	ledger balances.Ledger
	audit  redemptions.Log
	checks map[string]api.HealthCheck
}

func openStores(ctx context.Context, cfg *apiConfig) (*stores, error) {
	s := &stores{checks: map[string]api.HealthCheck{}}

	var db *sql.DB

	if cfg.needsPostgres() {
		var err error

		db, err = pgutils.OpenDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}

		shutdownqueue.Add("postgres", func(context.Context) error {
			slog.Info("Close postgres pool")

			return db.Close()
		})

		s.checks["postgres"] = db.PingContext
	}

	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		s.ledger = pgledger.New(db, cfg.StartingBalance)
	case config.BackendRedis:
		client, err := redisutil.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}

		shutdownqueue.Add("redis", func(context.Context) error {
			slog.Info("Close redis client")

			return client.Close()
		})

		s.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		s.ledger = redisledger.New(client, cfg.Redis.KeyPrefix, cfg.StartingBalance)
	default:
		s.ledger = memledger.New(cfg.StartingBalance)
	}

	switch cfg.AuditBackend {
	case config.BackendPostgres:
		s.audit = pgaudit.New(db)
	case config.BackendNone:
		s.audit = nil
	default:
		s.audit = memaudit.New()
	}

	slog.Info("stores ready", "ledger", cfg.LedgerBackend, "audit", cfg.AuditBackend)

	return s, nil
}

// newProviders builds every vendor adapter. Adapters without credentials are
// still registered: they fail fast and the gateway falls back.
func newProviders(cfg *apiConfig) (providers.Set, error) {
	timeout := cfg.Redemption.ProviderTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	tm, err := ticketmaster.New(cfg.Ticketmaster, timeout)
	if err != nil {
		return nil, err
	}

	im, err := impact.New(cfg.Impact, timeout)
	if err != nil {
		return nil, err
	}

	cb, err := coinbase.New(cfg.Coinbase, timeout)
	if err != nil {
		return nil, err
	}

	slog.Info("providers registered",
		"ticketmaster", tm.Configured(),
		"impact", im.Configured(),
		"coinbase", cb.Configured(),
	)

	return providers.NewSet(tm, im, cb), nil
}
