package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/coinvault/internal/api"
	"github.com/fastprodman/coinvault/internal/infra/logging"
	"github.com/fastprodman/coinvault/internal/infra/metrics"
	"github.com/fastprodman/coinvault/internal/repos/balances"
	"github.com/fastprodman/coinvault/internal/services/pricing"
	"github.com/fastprodman/coinvault/internal/services/redemption"
	"github.com/fastprodman/coinvault/internal/services/rewards"
	"github.com/fastprodman/coinvault/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	engine, err := pricing.New(cfg.Pricing)
	if err != nil {
		return fmt.Errorf("pricing: %w", err)
	}

	m := metrics.New()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}

	ledger := balances.Instrument(st.ledger, m)

	set, err := newProviders(cfg)
	if err != nil {
		return fmt.Errorf("providers: %w", err)
	}

	// --- Services ---
	gateway, err := redemption.New(redemption.Deps{
		Ledger:    ledger,
		Pricing:   engine,
		Providers: set,
		Audit:     st.audit,
		Metrics:   m,
	}, cfg.Redemption)
	if err != nil {
		return fmt.Errorf("redemption gateway: %w", err)
	}

	rewardSrv := rewards.New(ledger, engine, m, cfg.Rewards)

	// --- HTTP server ---
	h := api.NewHandler(api.Deps{
		Ledger:  ledger,
		Gateway: gateway,
		Rewards: rewardSrv,
		Pricing: engine,
		Checks:  st.checks,
	})
	srv := api.NewServer(cfg.Port, api.NewRouter(h, m))

	// Register HTTP server graceful shutdown
	shutdownqueue.Add("http", func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started",
		"port", cfg.Port,
		"coin_rate", engine.CoinRate(),
		"platform_fee_rate", engine.PlatformFeeRate(),
	)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
