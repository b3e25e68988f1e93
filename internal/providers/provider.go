// Package providers defines the capability every external reward vendor is
// adapted to. Adapters never leak vendor wire formats: they take a Request and
// return a Fulfillment, or an error that matches ErrUnavailable.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrUnavailable covers transport errors, timeouts, non-2xx responses,
// unreadable bodies and missing credentials.
var ErrUnavailable = errors.New("provider unavailable")

// Request carries what a vendor needs to fulfil one redemption.
type Request struct {
	RedemptionID string
	Kind         domain.Kind
	UserID       string
	UserEmail    string

	EventID   string
	EventName string

	Brand string

	// USD is the amount the vendor is asked to deliver: the sticker price for
	// tickets and gift cards, the net payout for crypto.
	USD decimal.Decimal

	Symbol        string
	WalletAddress string
}

// Fulfillment is a successful live vendor call.
type Fulfillment struct {
	Reference string
	Details   map[string]string

	// crypto only
	SpotPrice decimal.Decimal
	Quantity  decimal.Decimal
}

type Provider interface {
	Name() string
	Kind() domain.Kind
	Reserve(ctx context.Context, req Request) (Fulfillment, error)
}

// UnavailableError records which vendor failed and why.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Provider, ErrUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds.
func Unavailable(provider string, err error) error {
	if err == nil {
		err = errors.New("unknown failure")
	}

	return &UnavailableError{Provider: provider, Err: err}
}

// Set maps each reward kind to at most one provider.
type Set map[domain.Kind]Provider

func NewSet(ps ...Provider) Set {
	s := make(Set, len(ps))
	for _, p := range ps {
		if p == nil {
			continue
		}

		s[p.Kind()] = p
	}

	return s
}

// For returns the provider for kind, if one is registered.
func (s Set) For(kind domain.Kind) (Provider, bool) {
	p, ok := s[kind]

	return p, ok
}
