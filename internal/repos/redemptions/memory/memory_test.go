package memory

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fastprodman/coinvault/internal/domain"
	"github.com/fastprodman/coinvault/internal/repos/redemptions"
)

func record(id, user string, at time.Time) domain.Record {
	return domain.Record{
		ID:        id,
		Request:   domain.Request{Kind: domain.KindTicket, UserID: user},
		Status:    domain.StatusPendingManual,
		CreatedAt: at,
	}
}

func TestLog_AppendAndListNewestFirst(t *testing.T) {
	t.Parallel()

	l := New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		err := l.Append(t.Context(), record(fmt.Sprintf("r%d", i), "u1", base.Add(time.Duration(i)*time.Minute)))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	err := l.Append(t.Context(), record("other", "u2", base))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := l.List(t.Context(), "u1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(got) != 2 || got[0].ID != "r2" || got[1].ID != "r1" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestLog_DuplicateID(t *testing.T) {
	t.Parallel()

	l := New()
	rec := record("dup", "u1", time.Now())

	if err := l.Append(t.Context(), rec); err != nil {
		t.Fatalf("first append: %v", err)
	}

	err := l.Append(t.Context(), rec)
	if !errors.Is(err, redemptions.ErrDuplicateRecord) {
		t.Fatalf("want ErrDuplicateRecord, got %v", err)
	}
}

func TestLog_UnknownUserIsEmpty(t *testing.T) {
	t.Parallel()

	got, err := New().List(t.Context(), "ghost", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty, got %d", len(got))
	}
}
