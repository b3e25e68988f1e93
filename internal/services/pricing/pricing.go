// Package pricing converts between USD amounts and coins.
//
// All arithmetic is done in decimal so that sticker prices such as 25.00 map to
// an exact coin count. USD values are rounded half-up (away from zero) to cents.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	DefaultCoinRate        = 1000
	DefaultPlatformFeeRate = 0.10
)

var (
	ErrInvalidConfig = errors.New("invalid pricing config")
	ErrInvalidAmount = errors.New("invalid usd amount")
)

var (
	// MaxUSD is the largest single amount accepted from a caller.
	MaxUSD = decimal.NewFromInt(1_000_000_000)

	maxCoins = decimal.NewFromInt(math.MaxInt64)
)

// ValidateUSD accepts positive amounts up to MaxUSD with at most two fraction
// digits.
func ValidateUSD(usd decimal.Decimal) error {
	if !usd.IsPositive() {
		return fmt.Errorf("%w: must be > 0", ErrInvalidAmount)
	}

	if usd.GreaterThan(MaxUSD) {
		return fmt.Errorf("%w: must not exceed %s", ErrInvalidAmount, MaxUSD)
	}

	if !usd.Equal(usd.Truncate(2)) {
		return fmt.Errorf("%w: supports up to 2 decimals", ErrInvalidAmount)
	}

	return nil
}

// Config is the process-wide pricing configuration.
type Config struct {
	CoinRate        int64   `env:"COIN_RATE" envDefault:"1000"`
	PlatformFeeRate float64 `env:"PLATFORM_FEE_RATE" envDefault:"0.10"`
}

// DefaultConfig returns 1000 coins per USD with a 10% platform fee.
func DefaultConfig() Config {
	return Config{CoinRate: DefaultCoinRate, PlatformFeeRate: DefaultPlatformFeeRate}
}

// Engine is immutable after New and safe for concurrent use.
type Engine struct {
	rate       decimal.Decimal
	fee        decimal.Decimal
	multiplier decimal.Decimal // 1 + fee
	coinRate   int64
	feeRate    float64
}

func New(cfg Config) (*Engine, error) {
	if cfg.CoinRate <= 0 {
		return nil, fmt.Errorf("%w: coin rate must be positive, got %d", ErrInvalidConfig, cfg.CoinRate)
	}

	if cfg.PlatformFeeRate < 0 {
		return nil, fmt.Errorf("%w: platform fee must not be negative, got %v", ErrInvalidConfig, cfg.PlatformFeeRate)
	}

	// NewFromFloat keeps the shortest decimal form, so 0.1 stays 0.1.
	fee := decimal.NewFromFloat(cfg.PlatformFeeRate)

	return &Engine{
		rate:       decimal.NewFromInt(cfg.CoinRate),
		fee:        fee,
		multiplier: decimal.NewFromInt(1).Add(fee),
		coinRate:   cfg.CoinRate,
		feeRate:    cfg.PlatformFeeRate,
	}, nil
}

// CoinRate is the number of coins per USD.
func (e *Engine) CoinRate() int64 { return e.coinRate }

// PlatformFeeRate is the markup applied on redemption.
func (e *Engine) PlatformFeeRate() float64 { return e.feeRate }

// CheckPrice validates usd and confirms its coin price fits in an int64.
func (e *Engine) CheckPrice(usd decimal.Decimal) error {
	err := ValidateUSD(usd)
	if err != nil {
		return err
	}

	if e.exactCoins(usd).GreaterThan(maxCoins) {
		return fmt.Errorf("%w: coin price of %s is out of range", ErrInvalidAmount, usd)
	}

	return nil
}

// CoinsNeeded is the fee-inclusive coin price of a USD amount, rounded up.
// Non-positive amounts cost nothing. Prices beyond int64 saturate at
// math.MaxInt64, which no balance can cover; callers reject such amounts
// up front with CheckPrice.
func (e *Engine) CoinsNeeded(usd decimal.Decimal) int64 {
	if !usd.IsPositive() {
		return 0
	}

	c := e.exactCoins(usd)
	if c.GreaterThan(maxCoins) {
		return math.MaxInt64
	}

	return c.IntPart()
}

func (e *Engine) exactCoins(usd decimal.Decimal) decimal.Decimal {
	return usd.Mul(e.rate).Mul(e.multiplier).Ceil()
}

// USDValue is the face value of coins in USD, rounded half-up to cents.
func (e *Engine) USDValue(coins int64) decimal.Decimal {
	if coins <= 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(coins).Div(e.rate).Round(2)
}

// CoinsForPurchase is how many coins a USD purchase buys. No fee applies and
// fractions of a coin are dropped.
func (e *Engine) CoinsForPurchase(usd decimal.Decimal) int64 {
	if !usd.IsPositive() {
		return 0
	}

	c := usd.Mul(e.rate).Floor()
	if c.GreaterThan(maxCoins) {
		return math.MaxInt64
	}

	return c.IntPart()
}

// NetPayout splits the USD value of coins into what is paid out to the user
// and the platform margin. payout + margin == USDValue(coins).
func (e *Engine) NetPayout(coins int64) (payout, margin decimal.Decimal) {
	gross := e.USDValue(coins)
	if gross.IsZero() {
		return decimal.Zero, decimal.Zero
	}

	payout = gross.DivRound(e.multiplier, 2)

	return payout, gross.Sub(payout)
}

// Margin is the platform's share when a USD sticker price is charged in coins.
func (e *Engine) Margin(sticker decimal.Decimal, coins int64) decimal.Decimal {
	m := e.USDValue(coins).Sub(sticker)
	if m.IsNegative() {
		return decimal.Zero
	}

	return m
}

// FormatUSD renders a USD amount with exactly two fraction digits.
func FormatUSD(d decimal.Decimal) string {
	return d.StringFixed(2)
}
