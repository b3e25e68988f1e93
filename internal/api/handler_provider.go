package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/repos/balances"
	"github.com/fastprodman/coinvault/internal/services/pricing"
	"github.com/fastprodman/coinvault/internal/services/redemption"
	"github.com/fastprodman/coinvault/internal/services/rewards"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the services exposed over HTTP. Checks may be empty.
type Deps struct {
	Ledger  balances.Ledger
	Gateway *redemption.Gateway
	Rewards *rewards.Service
	Pricing *pricing.Engine
	Checks  map[string]HealthCheck
}

// HandlerProvider exposes the coin ledger, pricing and redemption gateway
// as HTTP handlers.
type HandlerProvider struct {
	ledger  balances.Ledger
	gateway *redemption.Gateway
	rewards *rewards.Service
	pricing *pricing.Engine
	checks  map[string]HealthCheck
	started time.Time
}

func NewHandler(d Deps) *HandlerProvider {
	return &HandlerProvider{
		ledger:  d.Ledger,
		gateway: d.Gateway,
		rewards: d.Rewards,
		pricing: d.Pricing,
		checks:  d.Checks,
		started: time.Now(),
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// writeServiceError maps a service error onto a status code. Anything not
// recognised is an internal fault: it is logged and its text is not leaked.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, balances.ErrInvalidAmount),
		errors.Is(err, balances.ErrInvalidUser),
		errors.Is(err, balances.ErrBalanceOverflow),
		errors.Is(err, pricing.ErrInvalidAmount),
		errors.Is(err, rewards.ErrInvalidSource),
		errors.Is(err, rewards.ErrInvalidUser),
		errors.Is(err, rewards.ErrInvalidCoins):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, balances.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, "insufficient funds")
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads a single JSON object from the body, capped at 1MB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}

		return errors.New("invalid JSON")
	}

	return nil
}

func parseUserIDFromPath(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "userId"))
	if id == "" {
		return "", errors.New("missing userId")
	}

	return id, nil
}

// kindFromPath maps the redeem route segment to a reward kind.
func kindFromPath(seg string) (domain.Kind, bool) {
	switch strings.ToLower(seg) {
	case "tickets", "ticket":
		return domain.KindTicket, true
	case "giftcard", "giftcards", "lasso":
		return domain.KindGiftCard, true
	case "crypto":
		return domain.KindCrypto, true
	default:
		return "", false
	}
}

// --- Handlers ---

// RootHandler handles GET /
func (h *HandlerProvider) RootHandler(w http.ResponseWriter, r *http.Request) {
	integrations := map[domain.Kind]redemption.Integration{}
	if h.gateway != nil {
		integrations = h.gateway.Integrations()
	}

	writeJSON(w, http.StatusOK, serviceInfoResponse{
		Message:         "coinvault server live",
		Integrations:    integrations,
		Pricing:         fmt.Sprintf("%d coins = $1 USD", h.pricing.CoinRate()),
		CoinRate:        h.pricing.CoinRate(),
		PlatformFeeRate: h.pricing.PlatformFeeRate(),
	})
}

// HealthHandler handles GET /healthz and GET /health
func (h *HandlerProvider) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}
	status := http.StatusOK

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}

	for name, check := range h.checks {
		err := check(ctx)
		if err != nil {
			slog.WarnContext(ctx, "health check failed", "check", name, "error", err)

			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable

			continue
		}

		resp.Checks[name] = "up"
	}

	writeJSON(w, status, resp)
}

// GetBalanceHandler handles GET /api/balance/{userId}
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	bal, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		UserID:   userID,
		Balance:  bal,
		USDValue: pricing.FormatUSD(h.pricing.USDValue(bal)),
	})
}

// RedeemHandler handles POST /api/redeem/{kind}
func (h *HandlerProvider) RedeemHandler(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindFromPath(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v: %q", domain.ErrUnknownKind, chi.URLParam(r, "kind")))
		return
	}

	var body redeemRequest

	err := decodeJSON(w, r, &body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.gateway.Redeem(r.Context(), body.toDomain(kind))
	if err != nil {
		if errors.Is(err, balances.ErrInsufficientFunds) {
			view := newRecordView(rec)
			writeJSON(w, http.StatusPaymentRequired, errorResponse{
				Success: false,
				Error:   "insufficient funds",
				Record:  &view,
			})

			return
		}

		writeServiceError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, redeemResponse{
		Success: true,
		Message: redemption.Message(rec),
		Record:  newRecordView(rec),
	})
}

// ListRedemptionsHandler handles GET /api/redemptions/{userId}?limit=N
func (h *HandlerProvider) ListRedemptionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	recs, err := h.gateway.History(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, newRecordView(rec))
	}

	writeJSON(w, http.StatusOK, historyResponse{UserID: userID, Records: views})
}

// AddCoinsHandler handles POST /api/add-coins
func (h *HandlerProvider) AddCoinsHandler(w http.ResponseWriter, r *http.Request) {
	var body addCoinsRequest

	err := decodeJSON(w, r, &body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.rewards.AddCoins(r.Context(), body.UserID, body.Coins, rewards.Source(body.Source))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, addCoinsResponse{
		Success:    true,
		UserID:     c.UserID,
		CoinsAdded: c.Coins,
		NewBalance: c.NewBalance,
		Source:     string(c.Source),
	})
}

// RewardAdHandler handles POST /api/reward-ad
func (h *HandlerProvider) RewardAdHandler(w http.ResponseWriter, r *http.Request) {
	var body rewardAdRequest

	err := decodeJSON(w, r, &body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rw, err := h.rewards.RewardAd(r.Context(), body.UserID, rewards.AdType(body.AdType))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rewardAdResponse{
		Success:     true,
		CoinsEarned: rw.CoinsEarned,
		NewBalance:  rw.NewBalance,
		AdType:      string(rw.AdType),
		Message:     fmt.Sprintf("Earned %d coins from watching ad", rw.CoinsEarned),
	})
}

// PurchaseQuoteHandler handles POST /api/purchase/quote
func (h *HandlerProvider) PurchaseQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var body purchaseRequest

	err := decodeJSON(w, r, &body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := h.rewards.QuotePurchase(body.UserID, body.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseResponse{
		Success:     true,
		CoinsEarned: q.CoinsEarned,
		PaymentURL:  q.PaymentURL,
		Message:     fmt.Sprintf("Purchase %d coins for $%s", q.CoinsEarned, pricing.FormatUSD(q.USD)),
		Timestamp:   q.QuotedAt,
	})
}

// PricingQuoteHandler handles GET /api/pricing/quote?usd=25
func (h *HandlerProvider) PricingQuoteHandler(w http.ResponseWriter, r *http.Request) {
	usd, err := decimal.NewFromString(strings.TrimSpace(r.URL.Query().Get("usd")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "usd must be a decimal number")
		return
	}

	err = h.pricing.CheckPrice(usd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	coins := h.pricing.CoinsNeeded(usd)

	writeJSON(w, http.StatusOK, pricingQuoteResponse{
		USD:             pricing.FormatUSD(usd),
		CoinsNeeded:     coins,
		CoinRate:        h.pricing.CoinRate(),
		PlatformFeeRate: h.pricing.PlatformFeeRate(),
		ProfitMargin:    pricing.FormatUSD(h.pricing.Margin(usd, coins)),
	})
}
