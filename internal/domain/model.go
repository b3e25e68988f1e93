package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the reward being redeemed.
type Kind string

const (
	KindTicket   Kind = "ticket"
	KindGiftCard Kind = "giftcard"
	KindCrypto   Kind = "crypto"
)

// Status is the fulfillment state of a redemption record.
type Status string

const (
	StatusReserved      Status = "reserved"
	StatusProcessing    Status = "processing"
	StatusCompleted     Status = "completed"
	StatusPendingManual Status = "pending_manual"
	StatusFailed        Status = "failed"
)

// Request is one redemption attempt. Which fields are required depends on Kind.
type Request struct {
	Kind   Kind   `json:"kind"`
	UserID string `json:"userId"`

	// ticket
	UserEmail   string          `json:"userEmail,omitempty"`
	EventID     string          `json:"eventId,omitempty"`
	EventName   string          `json:"eventName,omitempty"`
	TicketPrice decimal.Decimal `json:"ticketPrice,omitzero"`

	// gift card
	Brand         string          `json:"brand,omitempty"`
	GiftCardValue decimal.Decimal `json:"giftCardValue,omitzero"`

	// crypto
	CoinAmount    int64  `json:"coinAmount,omitempty"`
	Symbol        string `json:"symbol,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

// Record is the immutable outcome of a redemption attempt.
type Record struct {
	ID              string            `json:"id"`
	Request         Request           `json:"request"`
	Coins           int64             `json:"coins"`
	USDValue        decimal.Decimal   `json:"usdValue"`
	ProfitMargin    decimal.Decimal   `json:"profitMargin"`
	Status          Status            `json:"status"`
	LiveFulfillment bool              `json:"liveFulfillment"`
	ProviderRef     string            `json:"providerRef,omitempty"`
	Details         map[string]string `json:"details,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}
