// Package rewards credits coins earned outside redemptions: ad views,
// purchases, promotions and manual adjustments.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fastprodman/coinvault/internal/repos/balances"
	"github.com/fastprodman/coinvault/internal/services/pricing"
	"github.com/shopspring/decimal"
)

// Observer is told about every successful credit.
type Observer interface {
	AddCredits(source string, coins int64)
}

type Service struct {
	ledger  balances.Ledger
	pricing *pricing.Engine
	metrics Observer
	cfg     Config
	now     func() time.Time
}

// New builds the service; metrics may be nil.
func New(ledger balances.Ledger, engine *pricing.Engine, metrics Observer, cfg Config) *Service {
	return &Service{
		ledger:  ledger,
		pricing: engine,
		metrics: metrics,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceAd, SourcePurchase, SourcePromo, SourceAdmin:
		return src, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
	}
}

// AddCoins credits coins to userID.
func (s *Service) AddCoins(ctx context.Context, userID string, coins int64, source Source) (Credit, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Credit{}, ErrInvalidUser
	}

	if coins <= 0 {
		return Credit{}, ErrInvalidCoins
	}

	src, err := ParseSource(string(source))
	if err != nil {
		return Credit{}, err
	}

	bal, err := s.ledger.Credit(ctx, userID, coins)
	if err != nil {
		return Credit{}, fmt.Errorf("credit %d coins: %w", coins, err)
	}

	if s.metrics != nil {
		s.metrics.AddCredits(string(src), coins)
	}

	slog.InfoContext(ctx, "coins credited", "user_id", userID, "coins", coins, "source", src, "balance", bal)

	return Credit{UserID: userID, Coins: coins, Source: src, NewBalance: bal}, nil
}

// RewardAd pays out for one ad view. An empty ad type counts as a video.
func (s *Service) RewardAd(ctx context.Context, userID string, adType AdType) (AdReward, error) {
	adType = AdType(strings.ToLower(strings.TrimSpace(string(adType))))
	if adType == "" {
		adType = AdVideo
	}

	coins, ok := adPayouts[adType]
	if !ok {
		coins = defaultAdPayout
	}

	c, err := s.AddCoins(ctx, userID, coins, SourceAd)
	if err != nil {
		return AdReward{}, err
	}

	return AdReward{UserID: c.UserID, AdType: adType, CoinsEarned: coins, NewBalance: c.NewBalance}, nil
}

// QuotePurchase prices a coin purchase. Nothing is credited: the coins are
// granted once the payment settles through the checkout URL.
func (s *Service) QuotePurchase(userID string, usd decimal.Decimal) (PurchaseQuote, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return PurchaseQuote{}, ErrInvalidUser
	}

	err := s.pricing.CheckPrice(usd)
	if err != nil {
		return PurchaseQuote{}, err
	}

	coins := s.pricing.CoinsForPurchase(usd)
	if coins <= 0 {
		return PurchaseQuote{}, errors.Join(ErrInvalidCoins, pricing.ErrInvalidAmount)
	}

	return PurchaseQuote{
		UserID:      userID,
		USD:         usd,
		CoinsEarned: coins,
		PaymentURL:  s.cfg.CheckoutURL,
		QuotedAt:    s.now(),
	}, nil
}
