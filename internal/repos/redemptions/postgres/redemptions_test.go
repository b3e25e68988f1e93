package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/infra/pgtestutil"
	"github.com/fastprodman/coinvault/internal/repos/redemptions"
	"github.com/shopspring/decimal"
)

func TestRedemptions_AppendAndList(t *testing.T) {
	t.Parallel()

	repo := New(pgtestutil.NewTestDB(t))
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	older := domain.Record{
		ID: "tkt_1",
		Request: domain.Request{
			Kind: domain.KindTicket, UserID: "u1", UserEmail: "a@b.c",
			EventID: "ev1", TicketPrice: decimal.NewFromInt(25),
		},
		Coins:        27500,
		USDValue:     decimal.RequireFromString("25.00"),
		ProfitMargin: decimal.RequireFromString("2.50"),
		Status:       domain.StatusPendingManual,
		CreatedAt:    base,
	}
	newer := domain.Record{
		ID:              "cry_1",
		Request:         domain.Request{Kind: domain.KindCrypto, UserID: "u1", CoinAmount: 11000, Symbol: "BTC", WalletAddress: "bc1q"},
		Coins:           11000,
		USDValue:        decimal.RequireFromString("11.00"),
		ProfitMargin:    decimal.RequireFromString("1.00"),
		Status:          domain.StatusCompleted,
		LiveFulfillment: true,
		ProviderRef:     "cb_tx_9",
		Details:         map[string]string{"quantity": "0.00015385"},
		CreatedAt:       base.Add(time.Minute),
	}

	for _, rec := range []domain.Record{older, newer} {
		err := repo.Append(t.Context(), rec)
		if err != nil {
			t.Fatalf("append %s: %v", rec.ID, err)
		}
	}

	err := repo.Append(t.Context(), older)
	if !errors.Is(err, redemptions.ErrDuplicateRecord) {
		t.Fatalf("want ErrDuplicateRecord, got %v", err)
	}

	got, err := repo.List(t.Context(), "u1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("want 2 records, got %d", len(got))
	}

	if got[0].ID != "cry_1" || got[1].ID != "tkt_1" {
		t.Fatalf("wrong order: %s, %s", got[0].ID, got[1].ID)
	}

	if !got[1].USDValue.Equal(older.USDValue) || got[1].Request.EventID != "ev1" {
		t.Fatalf("ticket record not round-tripped: %+v", got[1])
	}

	if got[0].Details["quantity"] != "0.00015385" || !got[0].LiveFulfillment {
		t.Fatalf("crypto record not round-tripped: %+v", got[0])
	}
}
