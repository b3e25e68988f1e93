package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/repos/redemptions"
)

var _ redemptions.Log = (*Log)(nil)

type Log struct {
	mu     sync.RWMutex
	ids    map[string]struct{}
	byUser map[string][]domain.Record
}

func New() *Log {
	return &Log{
		ids:    make(map[string]struct{}),
		byUser: make(map[string][]domain.Record),
	}
}

func (l *Log) Append(_ context.Context, rec domain.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[rec.ID]; ok {
		return redemptions.ErrDuplicateRecord
	}

	l.ids[rec.ID] = struct{}{}
	l.byUser[rec.Request.UserID] = append(l.byUser[rec.Request.UserID], rec)

	return nil
}

func (l *Log) List(_ context.Context, userID string, limit int) ([]domain.Record, error) {
	limit = redemptions.NormalizeLimit(limit)

	l.mu.RLock()
	recs := slices.Clone(l.byUser[userID])
	l.mu.RUnlock()

	slices.Reverse(recs)

	if len(recs) > limit {
		recs = recs[:limit]
	}

	return recs, nil
}
