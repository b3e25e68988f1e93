package rewards

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceAd       Source = "ad"
	SourcePurchase Source = "purchase"
	SourcePromo    Source = "promo"
	SourceAdmin    Source = "admin"
)

type AdType string

const (
	AdVideo        AdType = "video"
	AdBanner       AdType = "banner"
	AdInterstitial AdType = "interstitial"
)

// adPayouts in coins; unknown ad types earn defaultAdPayout.
var adPayouts = map[AdType]int64{
	AdVideo:        1000,
	AdBanner:       100,
	AdInterstitial: 500,
}

const defaultAdPayout = 500

var (
	ErrInvalidSource = errors.New("invalid credit source")
	ErrInvalidUser   = errors.New("user id required")
	ErrInvalidCoins  = errors.New("coins must be positive")
)

type Credit struct {
	UserID     string
	Coins      int64
	Source     Source
	NewBalance int64
}

type AdReward struct {
	UserID      string
	AdType      AdType
	CoinsEarned int64
	NewBalance  int64
}

type PurchaseQuote struct {
	UserID      string
	USD         decimal.Decimal
	CoinsEarned int64
	PaymentURL  string
	QuotedAt    time.Time
}

type Config struct {
	CheckoutURL string `env:"PURCHASE_CHECKOUT_URL" envDefault:"https://www.coinbase.com/checkout"`
}
