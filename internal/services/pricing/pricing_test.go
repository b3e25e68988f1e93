package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func mustEngine(t *testing.T) *Engine {
	t.Helper()

	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	return e
}

func TestCoinsNeeded_Table(t *testing.T) {
	t.Parallel()

	e := mustEngine(t)

	tests := []struct {
		usd  string
		want int64
	}{
		{"25", 27500},
		{"50", 55000},
		{"1", 1100},
		{"0.01", 11},
		{"19.99", 21989},
		{"0", 0},
		{"-5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.usd, func(t *testing.T) {
			t.Parallel()

			got := e.CoinsNeeded(decimal.RequireFromString(tt.usd))
			if got != tt.want {
				t.Fatalf("CoinsNeeded(%s): want %d, got %d", tt.usd, tt.want, got)
			}
		})
	}
}

func TestCoinsNeeded_RoundsUp(t *testing.T) {
	t.Parallel()

	e, err := New(Config{CoinRate: 1000, PlatformFeeRate: 0.15})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// 0.07 * 1000 * 1.15 = 80.5
	got := e.CoinsNeeded(decimal.RequireFromString("0.07"))
	if got != 81 {
		t.Fatalf("want 81, got %d", got)
	}
}

func TestCoinsNeeded_NeverBelowFaceValueAndMonotonic(t *testing.T) {
	t.Parallel()

	e := mustEngine(t)

	var prev int64

	for cents := int64(1); cents <= 20_000; cents += 7 {
		x := decimal.New(cents, -2)
		got := e.CoinsNeeded(x)

		face := x.Mul(decimal.NewFromInt(e.CoinRate()))
		if decimal.NewFromInt(got).LessThan(face) {
			t.Fatalf("CoinsNeeded(%s)=%d below face value %s", x, got, face)
		}

		if got < prev {
			t.Fatalf("not monotonic at %s: %d < %d", x, got, prev)
		}

		prev = got
	}
}

func TestRoundTripFavorsProvider(t *testing.T) {
	t.Parallel()

	for _, fee := range []float64{0, 0.10, 0.25} {
		e, err := New(Config{CoinRate: 1000, PlatformFeeRate: fee})
		if err != nil {
			t.Fatalf("new: %v", err)
		}

		for cents := int64(1); cents <= 10_000; cents++ {
			x := decimal.New(cents, -2)
			first := e.CoinsNeeded(x)
			again := e.CoinsNeeded(e.USDValue(first))

			if again < first {
				t.Fatalf("fee %v, x=%s: round trip %d < %d", fee, x, again, first)
			}
		}
	}
}

func TestUSDValue_HalfUp(t *testing.T) {
	t.Parallel()

	e := mustEngine(t)

	tests := []struct {
		coins int64
		want  string
	}{
		{1000, "1.00"},
		{27500, "27.50"},
		{5, "0.01"}, // 0.005 rounds up
		{15, "0.02"}, // 0.015 rounds up, banker's rounding would give 0.02 as well
		{25, "0.03"}, // 0.025: half-up gives 0.03, banker's would give 0.02
		{4, "0.00"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		got := FormatUSD(e.USDValue(tt.coins))
		if got != tt.want {
			t.Fatalf("USDValue(%d): want %s, got %s", tt.coins, tt.want, got)
		}
	}
}

func TestCoinsForPurchase(t *testing.T) {
	t.Parallel()

	e := mustEngine(t)

	if got := e.CoinsForPurchase(decimal.RequireFromString("4.99")); got != 4990 {
		t.Fatalf("want 4990, got %d", got)
	}
	if got := e.CoinsForPurchase(decimal.RequireFromString("0.0005")); got != 0 {
		t.Fatalf("want 0, got %d", got)
	}
}

func TestNetPayout(t *testing.T) {
	t.Parallel()

	e := mustEngine(t)

	payout, margin := e.NetPayout(11_000)
	if FormatUSD(payout) != "10.00" || FormatUSD(margin) != "1.00" {
		t.Fatalf("want payout 10.00 margin 1.00, got %s / %s", payout, margin)
	}

	payout, margin = e.NetPayout(1_000)
	if !payout.Add(margin).Equal(e.USDValue(1_000)) {
		t.Fatalf("payout + margin must equal face value, got %s + %s", payout, margin)
	}
}

func TestMargin(t *testing.T) {
	t.Parallel()

	e := mustEngine(t)

	sticker := decimal.NewFromInt(25)
	got := e.Margin(sticker, e.CoinsNeeded(sticker))
	if FormatUSD(got) != "2.50" {
		t.Fatalf("want 2.50, got %s", got)
	}
}

func TestValidateUSD(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		wantErr bool
	}{
		{"25", false},
		{"25.5", false},
		{"25.50", false},
		{"25.500", false},
		{"25.505", true},
		{"0", true},
		{"-1", true},
		{"1000000000", false},
		{"1000000000.01", true},
		{"16769767339735956.02", true},
	}

	for _, tt := range tests {
		err := ValidateUSD(decimal.RequireFromString(tt.in))
		if tt.wantErr && !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ValidateUSD(%s): expected ErrInvalidAmount, got %v", tt.in, err)
		}
		if !tt.wantErr && err != nil {
			t.Fatalf("ValidateUSD(%s): unexpected error %v", tt.in, err)
		}
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{CoinRate: 0, PlatformFeeRate: 0.1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for zero rate, got %v", err)
	}

	_, err = New(Config{CoinRate: 1000, PlatformFeeRate: -0.1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for negative fee, got %v", err)
	}
}

func TestCoinsNeeded_LargeAmountsNeverUndercharge(t *testing.T) {
	t.Parallel()

	e := mustEngine(t)

	got := e.CoinsNeeded(MaxUSD)
	if got != 1_100_000_000_000 {
		t.Fatalf("CoinsNeeded(MaxUSD): want 1100000000000, got %d", got)
	}

	// Would wrap to 6 coins without saturation.
	huge := decimal.RequireFromString("16769767339735956.02")
	if got := e.CoinsNeeded(huge); got != math.MaxInt64 {
		t.Fatalf("CoinsNeeded(%s): want MaxInt64, got %d", huge, got)
	}

	if got := e.CoinsForPurchase(huge.Mul(decimal.NewFromInt(1000))); got != math.MaxInt64 {
		t.Fatalf("CoinsForPurchase: want MaxInt64, got %d", got)
	}
}

func TestCheckPrice(t *testing.T) {
	t.Parallel()

	e := mustEngine(t)

	err := e.CheckPrice(decimal.NewFromInt(25))
	if err != nil {
		t.Fatalf("25: unexpected error %v", err)
	}

	err = e.CheckPrice(MaxUSD.Add(decimal.NewFromInt(1)))
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("above MaxUSD: want ErrInvalidAmount, got %v", err)
	}

	// A within-limit amount can still overflow under an extreme coin rate.
	steep, err := New(Config{CoinRate: math.MaxInt64 / 10, PlatformFeeRate: 0.10})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	err = steep.CheckPrice(decimal.NewFromInt(10))
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("steep rate: want ErrInvalidAmount, got %v", err)
	}

	if got := steep.CoinsNeeded(decimal.NewFromInt(10)); got != math.MaxInt64 {
		t.Fatalf("steep rate: want saturation at MaxInt64, got %d", got)
	}
}
