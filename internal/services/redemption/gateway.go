// Package redemption turns a redemption request into a priced, debited and
// fulfilled (or queued for manual fulfilment) record.
//
// Each request runs validate, price, debit, dispatch, fallback, commit in that
// order. The debit is final: a failed vendor call never refunds coins, it
// produces a pending_manual record instead.
package redemption

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/providers"
	"github.com/fastprodman/coinvault/internal/repos/balances"
	"github.com/fastprodman/coinvault/internal/repos/redemptions"
	"github.com/fastprodman/coinvault/internal/services/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const auditTimeout = 2 * time.Second

var errNoProvider = errors.New("no provider registered")

// Observer is the metrics sink. *metrics.Metrics implements it.
type Observer interface {
	ObserveRedemption(kind, status string, live bool)
	ObserveProviderCall(kind, outcome string, d time.Duration)
}

// Provider call outcomes reported to the Observer.
const (
	outcomeOK          = "ok"
	outcomeUnavailable = "unavailable"
	outcomeTimeout     = "timeout"
	outcomeMissing     = "not_registered"
)

type Deps struct {
	Ledger    balances.Ledger
	Pricing   *pricing.Engine
	Providers providers.Set
	// Audit and Metrics are optional.
	Audit   redemptions.Log
	Metrics Observer
}

type Gateway struct {
	ledger    balances.Ledger
	pricing   *pricing.Engine
	providers providers.Set
	audit     redemptions.Log
	metrics   Observer
	cfg       Config

	now   func() time.Time
	newID func() string
}

func New(deps Deps, cfg Config) (*Gateway, error) {
	if deps.Ledger == nil {
		return nil, errors.New("redemption gateway: ledger is required")
	}

	if deps.Pricing == nil {
		return nil, errors.New("redemption gateway: pricing engine is required")
	}

	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultConfig().ProviderTimeout
	}

	if !cfg.DefaultTicketPrice.IsPositive() {
		cfg.DefaultTicketPrice = DefaultConfig().DefaultTicketPrice
	}

	if deps.Providers == nil {
		deps.Providers = providers.NewSet()
	}

	return &Gateway{
		ledger:    deps.Ledger,
		pricing:   deps.Pricing,
		providers: deps.Providers,
		audit:     deps.Audit,
		metrics:   deps.Metrics,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}, nil
}

// Redeem runs one redemption. On insufficient funds it returns the failed
// record together with an error matching balances.ErrInsufficientFunds.
// Vendor failures are never returned as errors.
func (g *Gateway) Redeem(ctx context.Context, req domain.Request) (domain.Record, error) {
	req, err := g.normalize(req)
	if err != nil {
		return domain.Record{}, err
	}

	rec, payout := g.price(req)

	if req.Kind == domain.KindCrypto && !payout.IsPositive() {
		return domain.Record{}, invalid(fmt.Sprintf("coinAmount %d is worth less than one cent", req.CoinAmount))
	}

	_, err = g.ledger.Debit(ctx, req.UserID, rec.Coins)
	if err != nil {
		if errors.Is(err, balances.ErrInsufficientFunds) {
			rec.Status = domain.StatusFailed
			rec.Details = map[string]string{"reason": "insufficient_funds"}
			g.commit(ctx, rec)

			return rec, fmt.Errorf("redeem %s: %w", req.Kind, err)
		}

		return domain.Record{}, fmt.Errorf("debit %d coins: %w", rec.Coins, err)
	}

	g.dispatch(ctx, &rec, payout)
	g.commit(ctx, rec)

	return rec, nil
}

// price fills the coin and USD columns. payout is what the vendor is asked to
// deliver in USD.
func (g *Gateway) price(req domain.Request) (domain.Record, decimal.Decimal) {
	rec := domain.Record{
		ID:        idPrefix(req.Kind) + g.newID(),
		Request:   req,
		CreatedAt: g.now(),
	}

	var payout decimal.Decimal

	switch req.Kind {
	case domain.KindTicket, domain.KindGiftCard:
		sticker := req.TicketPrice
		if req.Kind == domain.KindGiftCard {
			sticker = req.GiftCardValue
		}

		rec.Coins = g.pricing.CoinsNeeded(sticker)
		rec.USDValue = sticker
		rec.ProfitMargin = g.pricing.Margin(sticker, rec.Coins)
		payout = sticker
	case domain.KindCrypto:
		rec.Coins = req.CoinAmount
		rec.USDValue = g.pricing.USDValue(req.CoinAmount)
		payout, rec.ProfitMargin = g.pricing.NetPayout(req.CoinAmount)
	}

	return rec, payout
}

// dispatch makes exactly one vendor call and applies the fallback policy. The
// call survives caller cancellation so that a debited request always ends in
// a definite status, but it is still bounded by the provider timeout.
func (g *Gateway) dispatch(ctx context.Context, rec *domain.Record, payout decimal.Decimal) {
	kind := rec.Request.Kind

	p, ok := g.providers.For(kind)
	if !ok {
		g.observeCall(kind, outcomeMissing, 0)
		g.fallback(ctx, rec, payout, errNoProvider)

		return
	}

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.ProviderTimeout)
	defer cancel()

	start := time.Now()

	f, err := p.Reserve(dctx, providers.Request{
		RedemptionID:  rec.ID,
		Kind:          kind,
		UserID:        rec.Request.UserID,
		UserEmail:     rec.Request.UserEmail,
		EventID:       rec.Request.EventID,
		EventName:     rec.Request.EventName,
		Brand:         rec.Request.Brand,
		USD:           payout,
		Symbol:        rec.Request.Symbol,
		WalletAddress: rec.Request.WalletAddress,
	})

	g.observeCall(kind, outcome(err), time.Since(start))

	if err != nil {
		g.fallback(ctx, rec, payout, err)

		return
	}

	rec.LiveFulfillment = true
	rec.ProviderRef = f.Reference
	rec.Status = liveStatus(kind)
	rec.Details = copyDetails(f.Details)

	if kind == domain.KindCrypto {
		rec.Details["spotPrice"] = f.SpotPrice.String()
		rec.Details["quantity"] = f.Quantity.String()
		rec.Details["payoutUsd"] = pricing.FormatUSD(payout)
	}
}

func (g *Gateway) fallback(ctx context.Context, rec *domain.Record, payout decimal.Decimal, cause error) {
	rec.LiveFulfillment = false
	rec.Details = map[string]string{"fallbackReason": fallbackReason(cause)}

	slog.WarnContext(ctx, "provider fulfilment failed, using fallback",
		"redemption_id", rec.ID,
		"kind", rec.Request.Kind,
		"error", cause,
	)

	if rec.Request.Kind != domain.KindCrypto {
		rec.Status = domain.StatusPendingManual

		return
	}

	spot, ok := g.cfg.SimulatedSpotPrices[rec.Request.Symbol]
	if !ok || !spot.IsPositive() {
		rec.Status = domain.StatusPendingManual

		return
	}

	rec.Status = domain.StatusCompleted
	rec.Details["simulated"] = "true"
	rec.Details["spotPrice"] = spot.String()
	rec.Details["quantity"] = payout.DivRound(spot, 8).String()
	rec.Details["payoutUsd"] = pricing.FormatUSD(payout)
}

// commit reports the final record. Audit failures are logged only.
func (g *Gateway) commit(ctx context.Context, rec domain.Record) {
	if g.metrics != nil {
		g.metrics.ObserveRedemption(string(rec.Request.Kind), string(rec.Status), rec.LiveFulfillment)
	}

	slog.InfoContext(ctx, "redemption committed",
		"redemption_id", rec.ID,
		"user_id", rec.Request.UserID,
		"kind", rec.Request.Kind,
		"coins", rec.Coins,
		"status", rec.Status,
		"live", rec.LiveFulfillment,
	)

	if g.audit == nil {
		return
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	err := g.audit.Append(actx, rec)
	if err != nil {
		slog.ErrorContext(ctx, "append redemption record", "redemption_id", rec.ID, "error", err)
	}
}

// History lists a user's past redemptions, newest first. Without an audit
// log it is always empty.
func (g *Gateway) History(ctx context.Context, userID string, limit int) ([]domain.Record, error) {
	if g.audit == nil {
		return []domain.Record{}, nil
	}

	recs, err := g.audit.List(ctx, userID, redemptions.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}

	return recs, nil
}

// Integration describes the vendor wired for one reward kind.
type Integration struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
}

// Integrations reports the vendor registered for each kind. A vendor that
// cannot tell whether it has credentials counts as configured.
func (g *Gateway) Integrations() map[domain.Kind]Integration {
	out := make(map[domain.Kind]Integration, len(g.providers))
	for kind, p := range g.providers {
		configured := true
		if c, ok := p.(interface{ Configured() bool }); ok {
			configured = c.Configured()
		}

		out[kind] = Integration{Provider: p.Name(), Configured: configured}
	}

	return out
}

func (g *Gateway) observeCall(kind domain.Kind, outcome string, d time.Duration) {
	if g.metrics != nil {
		g.metrics.ObserveProviderCall(string(kind), outcome, d)
	}
}

func outcome(err error) string {
	if err == nil {
		return outcomeOK
	}

	if isTimeout(err) {
		return outcomeTimeout
	}

	return outcomeUnavailable
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error

	return errors.As(err, &ne) && ne.Timeout()
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, errNoProvider):
		return "provider_not_registered"
	case isTimeout(err):
		return "provider_timeout"
	case errors.Is(err, providers.ErrUnavailable):
		return "provider_unavailable"
	default:
		return "provider_error"
	}
}

func liveStatus(kind domain.Kind) domain.Status {
	switch kind {
	case domain.KindTicket:
		return domain.StatusReserved
	case domain.KindGiftCard:
		return domain.StatusProcessing
	default:
		return domain.StatusCompleted
	}
}

func idPrefix(kind domain.Kind) string {
	switch kind {
	case domain.KindTicket:
		return "tkt_"
	case domain.KindGiftCard:
		return "gift_"
	default:
		return "cry_"
	}
}

func copyDetails(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+3)
	for k, v := range in {
		out[k] = v
	}

	return out
}
