package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRedemption(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRedemption("ticket", "pending_manual", false)
	m.ObserveRedemption("ticket", "pending_manual", false)
	m.ObserveRedemption("crypto", "completed", true)

	got := testutil.ToFloat64(m.redemptions.WithLabelValues("ticket", "pending_manual", "false"))
	if got != 2 {
		t.Fatalf("expected 2 pending ticket redemptions, got %v", got)
	}

	got = testutil.ToFloat64(m.redemptions.WithLabelValues("crypto", "completed", "true"))
	if got != 1 {
		t.Fatalf("expected 1 live crypto redemption, got %v", got)
	}
}

func TestLedgerAndCredits(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveLedgerOp("debit", "insufficient")
	m.AddCredits("ad", 1000)
	m.AddCredits("ad", 500)
	m.AddCredits("promo", 0)

	if got := testutil.ToFloat64(m.ledgerOps.WithLabelValues("debit", "insufficient")); got != 1 {
		t.Fatalf("expected 1 insufficient debit, got %v", got)
	}

	if got := testutil.ToFloat64(m.credits.WithLabelValues("ad")); got != 1500 {
		t.Fatalf("expected 1500 ad coins, got %v", got)
	}

	if got := testutil.CollectAndCount(m.credits); got != 1 {
		t.Fatalf("zero credit must not create a series, got %d series", got)
	}
}

func TestProviderCallHistogram(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveProviderCall("giftcard", OutcomeTimeout, 5*time.Second)

	if got := testutil.CollectAndCount(m.providerCall); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveRedemption("ticket", "reserved", true)
	m.ObserveProviderCall("ticket", OutcomeOK, time.Millisecond)
	m.ObserveLedgerOp("credit", "ok")
	m.AddCredits("ad", 10)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	t.Parallel()

	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/balance/{userId}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/balance/"+id, nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/balance/{userId}", "200"))
	if got != 3 {
		t.Fatalf("expected 3 requests on the route pattern, got %v", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "coinvault_http_requests_total") {
		t.Fatalf("exposition is missing request counter")
	}
}
