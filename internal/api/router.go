package api

import (
	"net/http"

	"github.com/fastprodman/coinvault/internal/infra/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Instrumentation is the HTTP side of the metrics registry.
type Instrumentation interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// NewRouter registers every endpoint on a chi router. inst may be nil, in
// which case /metrics is not served.
func NewRouter(h *HandlerProvider, inst Instrumentation) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.AccessLog(nil))
	r.Use(middleware.Recoverer)

	if inst != nil {
		r.Use(inst.Middleware)
		r.Method(http.MethodGet, "/metrics", inst.Handler())
	}

	r.Get("/", h.RootHandler)
	r.Get("/healthz", h.HealthHandler)
	r.Get("/health", h.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/balance/{userId}", h.GetBalanceHandler)
		r.Get("/user-balance/{userId}", h.GetBalanceHandler)
		r.Get("/redemptions/{userId}", h.ListRedemptionsHandler)
		r.Get("/pricing/quote", h.PricingQuoteHandler)

		r.Post("/redeem/{kind}", h.RedeemHandler)
		r.Post("/add-coins", h.AddCoinsHandler)
		r.Post("/reward-ad", h.RewardAdHandler)
		r.Post("/purchase/quote", h.PurchaseQuoteHandler)
	})

	return r
}
