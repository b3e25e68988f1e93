// Package redemptions is the audit log of redemption records.
package redemptions

import (
	"context"
	"errors"

	"github.com/fastprodman/coinvault/internal/domain"
)

var ErrDuplicateRecord = errors.New("duplicate redemption record")

const DefaultListLimit = 50

type Log interface {
	Append(ctx context.Context, rec domain.Record) error
	// List returns a user's records, newest first.
	List(ctx context.Context, userID string, limit int) ([]domain.Record, error)
}

// NormalizeLimit clamps limit to (0, DefaultListLimit*4], defaulting to DefaultListLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}

	return min(limit, DefaultListLimit*4)
}
