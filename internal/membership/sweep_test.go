package membership

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/primecart/backend-store/internal/store"
)

type stubSweepQuerier struct {
	cutoff  time.Time
	expired int64
}

func (s *stubSweepQuerier) ExpireLapsedSubscriptions(_ context.Context, now pgtype.Timestamptz) (int64, error) {
	s.cutoff = store.TimeOrZero(now)
	return s.expired, nil
}

func TestSweepOncePassesCutoff(t *testing.T) {
	now := time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC)
	q := &stubSweepQuerier{expired: 3}
	sweeper := Sweeper{
		Q:      q,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return now },
	}

	n, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 expired, got %d", n)
	}
	if !q.cutoff.Equal(now) {
		t.Fatalf("cutoff = %v, want %v", q.cutoff, now)
	}
}

func TestSweepOnceRequiresQuerier(t *testing.T) {
	sweeper := Sweeper{Logger: zerolog.Nop()}
	if _, err := sweeper.SweepOnce(context.Background()); err == nil {
		t.Fatal("expected error for unconfigured sweeper")
	}
}
