package redemption

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config tunes vendor dispatch and the fallback prices.
type Config struct {
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"5s"`
	// Ticket price used when a ticket request does not carry one.
	DefaultTicketPrice decimal.Decimal `env:"DEFAULT_TICKET_PRICE" envDefault:"50"`
	// Spot prices used to complete crypto redemptions when the exchange is unreachable.
	SimulatedSpotPrices map[string]decimal.Decimal `env:"CRYPTO_SIMULATED_PRICES" envDefault:"BTC=65000,ETH=3500,SOL=150"`
}

// DefaultConfig mirrors the env defaults.
func DefaultConfig() Config {
	return Config{
		ProviderTimeout:    5 * time.Second,
		DefaultTicketPrice: decimal.NewFromInt(50),
		SimulatedSpotPrices: map[string]decimal.Decimal{
			"BTC": decimal.NewFromInt(65000),
			"ETH": decimal.NewFromInt(3500),
			"SOL": decimal.NewFromInt(150),
		},
	}
}
