package api

import (
	"time"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/services/pricing"
	"github.com/fastprodman/coinvault/internal/services/redemption"
	"github.com/shopspring/decimal"
)

type errorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Record  *recordView `json:"record,omitempty"`
}

type serviceInfoResponse struct {
	Message         string                                 `json:"message"`
	Integrations    map[domain.Kind]redemption.Integration `json:"integrations"`
	Pricing         string                                 `json:"pricing"`
	CoinRate        int64                                  `json:"coinRate"`
	PlatformFeeRate float64                                `json:"platformFeeRate"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

type balanceResponse struct {
	UserID   string `json:"userId"`
	Balance  int64  `json:"balance"`
	USDValue string `json:"usdValue"`
}

// redeemRequest accepts numbers or strings for USD amounts.
// giftCardAmount is an older name for giftCardValue.
type redeemRequest struct {
	UserID         string          `json:"userId"`
	UserEmail      string          `json:"userEmail"`
	EventID        string          `json:"eventId"`
	EventName      string          `json:"eventName"`
	TicketPrice    decimal.Decimal `json:"ticketPrice"`
	Brand          string          `json:"brand"`
	GiftCardValue  decimal.Decimal `json:"giftCardValue"`
	GiftCardAmount decimal.Decimal `json:"giftCardAmount"`
	CoinAmount     int64           `json:"coinAmount"`
	Symbol         string          `json:"symbol"`
	WalletAddress  string          `json:"walletAddress"`
}

func (b redeemRequest) toDomain(kind domain.Kind) domain.Request {
	value := b.GiftCardValue
	if value.IsZero() {
		value = b.GiftCardAmount
	}

	return domain.Request{
		Kind:          kind,
		UserID:        b.UserID,
		UserEmail:     b.UserEmail,
		EventID:       b.EventID,
		EventName:     b.EventName,
		TicketPrice:   b.TicketPrice,
		Brand:         b.Brand,
		GiftCardValue: value,
		CoinAmount:    b.CoinAmount,
		Symbol:        b.Symbol,
		WalletAddress: b.WalletAddress,
	}
}

// recordView renders USD amounts as fixed two-place strings.
type recordView struct {
	ID              string            `json:"id"`
	Kind            domain.Kind       `json:"kind"`
	UserID          string            `json:"userId"`
	UserEmail       string            `json:"userEmail,omitempty"`
	EventID         string            `json:"eventId,omitempty"`
	EventName       string            `json:"eventName,omitempty"`
	TicketPrice     string            `json:"ticketPrice,omitempty"`
	Brand           string            `json:"brand,omitempty"`
	GiftCardValue   string            `json:"giftCardValue,omitempty"`
	Symbol          string            `json:"symbol,omitempty"`
	WalletAddress   string            `json:"walletAddress,omitempty"`
	Coins           int64             `json:"coins"`
	USDValue        string            `json:"usdValue"`
	ProfitMargin    string            `json:"profitMargin"`
	Status          domain.Status     `json:"status"`
	LiveFulfillment bool              `json:"liveFulfillment"`
	ProviderRef     string            `json:"providerRef,omitempty"`
	Details         map[string]string `json:"details,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

func newRecordView(rec domain.Record) recordView {
	req := rec.Request

	v := recordView{
		ID:              rec.ID,
		Kind:            req.Kind,
		UserID:          req.UserID,
		UserEmail:       req.UserEmail,
		EventID:         req.EventID,
		EventName:       req.EventName,
		Brand:           req.Brand,
		Symbol:          req.Symbol,
		WalletAddress:   req.WalletAddress,
		Coins:           rec.Coins,
		USDValue:        pricing.FormatUSD(rec.USDValue),
		ProfitMargin:    pricing.FormatUSD(rec.ProfitMargin),
		Status:          rec.Status,
		LiveFulfillment: rec.LiveFulfillment,
		ProviderRef:     rec.ProviderRef,
		Details:         rec.Details,
		CreatedAt:       rec.CreatedAt,
	}

	if !req.TicketPrice.IsZero() {
		v.TicketPrice = pricing.FormatUSD(req.TicketPrice)
	}

	if !req.GiftCardValue.IsZero() {
		v.GiftCardValue = pricing.FormatUSD(req.GiftCardValue)
	}

	return v
}

type redeemResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Record  recordView `json:"record"`
}

type historyResponse struct {
	UserID  string       `json:"userId"`
	Records []recordView `json:"records"`
}

type addCoinsRequest struct {
	UserID string `json:"userId"`
	Coins  int64  `json:"coins"`
	Source string `json:"source"`
}

type addCoinsResponse struct {
	Success    bool   `json:"success"`
	UserID     string `json:"userId"`
	CoinsAdded int64  `json:"coinsAdded"`
	NewBalance int64  `json:"newBalance"`
	Source     string `json:"source"`
}

type rewardAdRequest struct {
	UserID string `json:"userId"`
	AdType string `json:"adType"`
}

type rewardAdResponse struct {
	Success     bool   `json:"success"`
	CoinsEarned int64  `json:"coinsEarned"`
	NewBalance  int64  `json:"newBalance"`
	AdType      string `json:"adType"`
	Message     string `json:"message"`
}

type purchaseRequest struct {
	UserID string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

type purchaseResponse struct {
	Success     bool      `json:"success"`
	CoinsEarned int64     `json:"coinsEarned"`
	PaymentURL  string    `json:"paymentUrl"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

type pricingQuoteResponse struct {
	USD             string  `json:"usd"`
	CoinsNeeded     int64   `json:"coinsNeeded"`
	CoinRate        int64   `json:"coinRate"`
	PlatformFeeRate float64 `json:"platformFeeRate"`
	ProfitMargin    string  `json:"profitMargin"`
}
