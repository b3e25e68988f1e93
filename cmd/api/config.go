package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/fastprodman/coinvault/internal/config"
	"github.com/fastprodman/coinvault/internal/providers/coinbase"
	"github.com/fastprodman/coinvault/internal/providers/impact"
	"github.com/fastprodman/coinvault/internal/providers/ticketmaster"
	"github.com/fastprodman/coinvault/internal/services/pricing"
	"github.com/fastprodman/coinvault/internal/services/redemption"
	"github.com/fastprodman/coinvault/internal/services/rewards"
	"github.com/fastprodman/coinvault/pkg/envconf"
	"github.com/joho/godotenv"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"15s"`

	LedgerBackend   string `env:"LEDGER_BACKEND" envDefault:"memory"`
	StartingBalance int64  `env:"LEDGER_STARTING_BALANCE" envDefault:"0"`
	AuditBackend    string `env:"AUDIT_BACKEND" envDefault:"memory"`

	Postgres config.PostgresConfig
	Redis    config.RedisConfig

	Pricing    pricing.Config
	Redemption redemption.Config
	Rewards    rewards.Config

	Ticketmaster ticketmaster.Config
	Impact       impact.Config
	Coinbase     coinbase.Config
}

// readConfig loads .env (if present) into the process environment, then
// binds the environment onto apiConfig.
func readConfig() (*apiConfig, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := new(apiConfig)

	err = envconf.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	err = cfg.validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *apiConfig) validate() error {
	switch c.LedgerBackend {
	case config.BackendMemory, config.BackendPostgres, config.BackendRedis:
	default:
		return fmt.Errorf("LEDGER_BACKEND: unknown backend %q", c.LedgerBackend)
	}

	switch c.AuditBackend {
	case config.BackendMemory, config.BackendPostgres, config.BackendNone:
	default:
		return fmt.Errorf("AUDIT_BACKEND: unknown backend %q", c.AuditBackend)
	}

	if c.StartingBalance < 0 {
		return errors.New("LEDGER_STARTING_BALANCE must not be negative")
	}

	return nil
}

func (c *apiConfig) needsPostgres() bool {
	return c.LedgerBackend == config.BackendPostgres || c.AuditBackend == config.BackendPostgres
}
