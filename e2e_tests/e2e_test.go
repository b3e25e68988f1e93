package e2etests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

const (
	timeout   = 10 * time.Second
	waitReady = 20 * time.Second
)

var httpClient = &http.Client{Timeout: timeout}

// baseURL points at a running API (memory ledger, default pricing). The suite
// is skipped unless E2E_BASE_URL is set.
func baseURL(t *testing.T) string {
	t.Helper()

	u := strings.TrimRight(os.Getenv("E2E_BASE_URL"), "/")
	if u == "" {
		t.Skip("E2E_BASE_URL not set")
	}

	return u
}

func TestE2E_EarnAndRedeemFlow(t *testing.T) {
	base := baseURL(t)
	waitUntilReady(t, base)

	user := uniqUser("flow")

	t.Run("unknown_user_reads_zero", func(t *testing.T) {
		if got := getBalance(t, base, user); got != 0 {
			t.Fatalf("initial balance: want 0, got %d", got)
		}
	})

	t.Run("credit_via_add_coins", func(t *testing.T) {
		code, body := postJSON(t, base+"/api/add-coins", map[string]any{
			"userId": user, "coins": 30000, "source": "purchase",
		})
		if code != http.StatusOK {
			t.Fatalf("add-coins: want 200, got %d (%s)", code, body)
		}

		if got := getBalance(t, base, user); got != 30000 {
			t.Fatalf("after credit: want 30000, got %d", got)
		}
	})

	t.Run("ad_reward", func(t *testing.T) {
		code, body := postJSON(t, base+"/api/reward-ad", map[string]any{"userId": user, "adType": "banner"})
		if code != http.StatusOK {
			t.Fatalf("reward-ad: want 200, got %d (%s)", code, body)
		}

		if got := getBalance(t, base, user); got != 30100 {
			t.Fatalf("after ad: want 30100, got %d", got)
		}
	})

	t.Run("redeem_ticket_debits_even_on_fallback", func(t *testing.T) {
		code, body := postJSON(t, base+"/api/redeem/tickets", map[string]any{
			"userId": user, "userEmail": "e2e@example.com", "eventId": "e2e-event", "ticketPrice": 25,
		})
		if code != http.StatusOK {
			t.Fatalf("redeem: want 200, got %d (%s)", code, body)
		}

		var resp struct {
			Success bool `json:"success"`
			Record  struct {
				Coins  int64  `json:"coins"`
				Status string `json:"status"`
			} `json:"record"`
		}

		err := json.Unmarshal([]byte(body), &resp)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}

		if !resp.Success || resp.Record.Coins != 27500 {
			t.Fatalf("unexpected redeem response: %s", body)
		}

		switch resp.Record.Status {
		case "reserved", "pending_manual":
		default:
			t.Fatalf("unexpected status %q", resp.Record.Status)
		}

		if got := getBalance(t, base, user); got != 2600 {
			t.Fatalf("after redeem: want 2600, got %d", got)
		}
	})

	t.Run("insufficient_funds_is_402", func(t *testing.T) {
		code, body := postJSON(t, base+"/api/redeem/giftcard", map[string]any{
			"userId": user, "userEmail": "e2e@example.com", "brand": "Amazon", "giftCardValue": "100",
		})
		if code != http.StatusPaymentRequired {
			t.Fatalf("want 402, got %d (%s)", code, body)
		}

		if got := getBalance(t, base, user); got != 2600 {
			t.Fatalf("balance changed on 402: %d", got)
		}
	})
}

func TestE2E_Validation(t *testing.T) {
	base := baseURL(t)
	waitUntilReady(t, base)

	user := uniqUser("val")

	cases := []struct {
		name string
		path string
		body map[string]any
	}{
		{name: "ticket_missing_event", path: "/api/redeem/tickets", body: map[string]any{"userId": user, "userEmail": "a@b.co"}},
		{name: "crypto_missing_wallet", path: "/api/redeem/crypto", body: map[string]any{"userId": user, "coinAmount": 10, "symbol": "BTC"}},
		{name: "unknown_kind", path: "/api/redeem/boats", body: map[string]any{"userId": user}},
		{name: "bad_source", path: "/api/add-coins", body: map[string]any{"userId": user, "coins": 10, "source": "gift"}},
		{name: "sub_cent_purchase", path: "/api/purchase/quote", body: map[string]any{"userId": user, "amount": "1.005"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := postJSON(t, base+tc.path, tc.body)
			if code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d (%s)", code, body)
			}
		})
	}

	if got := getBalance(t, base, user); got != 0 {
		t.Fatalf("validation failures must not touch the ledger, got %d", got)
	}
}

/* -------------------- helpers -------------------- */

func getBalance(t *testing.T, base, userID string) int64 {
	t.Helper()

	u := fmt.Sprintf("%s/api/balance/%s", base, userID)

	resp, err := httpClient.Get(u)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: want 200, got %d (%s)", u, resp.StatusCode, string(b))
	}

	var payload struct {
		UserID  string `json:"userId"`
		Balance int64  `json:"balance"`
	}

	err = json.NewDecoder(resp.Body).Decode(&payload)
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}

	if payload.UserID != userID {
		t.Fatalf("userId mismatch: want %s, got %s", userID, payload.UserID)
	}

	return payload.Balance
}

func postJSON(t *testing.T, u string, body any) (int, string) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	resp, err := httpClient.Post(u, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)

	return resp.StatusCode, string(b)
}

// waitUntilReady polls /healthz until it answers 200 or waitReady elapses.
func waitUntilReady(t *testing.T, base string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitReady)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service not ready at %s within %s", base, waitReady)
		case <-tick.C:
			resp, err := httpClient.Get(base + "/healthz")
			if err != nil {
				continue
			}

			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}

func uniqUser(prefix string) string {
	return fmt.Sprintf("e2e-%s-%d", prefix, time.Now().UnixNano())
}
