package redemption

import (
	"fmt"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/services/pricing"
)

// Message is the user-facing summary of a record.
func Message(rec domain.Record) string {
	req := rec.Request

	if rec.Status == domain.StatusFailed {
		return fmt.Sprintf("Not enough coins: %d needed", rec.Coins)
	}

	switch req.Kind {
	case domain.KindTicket:
		if rec.LiveFulfillment {
			return fmt.Sprintf("Reserved %s ticket for %d coins", req.EventName, rec.Coins)
		}

		return fmt.Sprintf("Ticket for %s queued for manual booking (%d coins)", req.EventName, rec.Coins)
	case domain.KindGiftCard:
		if rec.LiveFulfillment {
			return fmt.Sprintf("Ordered $%s %s card for %d coins", pricing.FormatUSD(req.GiftCardValue), req.Brand, rec.Coins)
		}

		return fmt.Sprintf("$%s %s card queued for manual fulfilment (%d coins)", pricing.FormatUSD(req.GiftCardValue), req.Brand, rec.Coins)
	case domain.KindCrypto:
		if rec.Status == domain.StatusCompleted {
			return fmt.Sprintf("Sent %s %s for %d coins", rec.Details["quantity"], req.Symbol, rec.Coins)
		}

		return fmt.Sprintf("%s transfer queued for manual processing (%d coins)", req.Symbol, rec.Coins)
	default:
		return string(rec.Status)
	}
}
