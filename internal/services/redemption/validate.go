package redemption

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/fastprodman/coinvault/internal/domain"
)

// normalize trims the request, applies defaults and rejects anything that
// cannot be priced. Errors wrap domain.ErrInvalidRequest.
func (g *Gateway) normalize(req domain.Request) (domain.Request, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	req.EventID = strings.TrimSpace(req.EventID)
	req.EventName = strings.TrimSpace(req.EventName)
	req.Brand = strings.TrimSpace(req.Brand)
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)

	if req.UserID == "" {
		return req, invalid("userId is required")
	}

	switch req.Kind {
	case domain.KindTicket:
		err := requireEmail(req.UserEmail)
		if err != nil {
			return req, err
		}

		if req.EventID == "" {
			return req, invalid("eventId is required")
		}

		if req.TicketPrice.IsZero() {
			req.TicketPrice = g.cfg.DefaultTicketPrice
		}

		err = g.pricing.CheckPrice(req.TicketPrice)
		if err != nil {
			return req, invalid(fmt.Sprintf("ticketPrice: %v", err))
		}

		if req.EventName == "" {
			req.EventName = req.EventID
		}
	case domain.KindGiftCard:
		err := requireEmail(req.UserEmail)
		if err != nil {
			return req, err
		}

		if req.Brand == "" {
			return req, invalid("brand is required")
		}

		err = g.pricing.CheckPrice(req.GiftCardValue)
		if err != nil {
			return req, invalid(fmt.Sprintf("giftCardValue: %v", err))
		}
	case domain.KindCrypto:
		if req.CoinAmount <= 0 {
			return req, invalid("coinAmount must be positive")
		}

		if req.Symbol == "" {
			return req, invalid("symbol is required")
		}

		if req.WalletAddress == "" {
			return req, invalid("walletAddress is required")
		}
	default:
		return req, fmt.Errorf("%w: %w: %q", domain.ErrInvalidRequest, domain.ErrUnknownKind, req.Kind)
	}

	return req, nil
}

func requireEmail(email string) error {
	if email == "" {
		return invalid("userEmail is required")
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return invalid("userEmail is not a valid address")
	}

	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, msg)
}
