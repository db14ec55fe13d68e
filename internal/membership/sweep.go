package membership

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/primecart/backend-store/internal/lock"
	"github.com/primecart/backend-store/internal/obs"
	"github.com/primecart/backend-store/internal/store"
)

const sweepLockKey = "prime:sweep"

// SweepQuerier is the single query the sweeper needs.
type SweepQuerier interface {
	ExpireLapsedSubscriptions(ctx context.Context, now pgtype.Timestamptz) (int64, error)
}

// Sweeper periodically flips lapsed active subscriptions to expired. The gate
// already checks end dates on every read, so the sweep only keeps stored
// status and the member flag consistent for listings and admin views.
type Sweeper struct {
	Q        SweepQuerier
	Locker   lock.Locker
	Interval time.Duration
	LockTTL  time.Duration
	Logger   zerolog.Logger
	Now      func() time.Time
}

func (s Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run sweeps on the configured interval until the context is cancelled.
// Only one instance sweeps per cycle; others skip when the lock is held.
func (s Sweeper) Run(ctx context.Context) error {
	if s.Q == nil {
		return errors.New("membership: sweeper not configured")
	}
	interval := s.Interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ran, err := s.Locker.TryLock(ctx, sweepLockKey, s.LockTTL, func(lockCtx context.Context) error {
				_, err := s.SweepOnce(lockCtx)
				return err
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				s.Logger.Error().Err(err).Msg("prime sweep failed")
			}
			if !ran && err == nil {
				s.Logger.Debug().Msg("prime sweep skipped, lock held elsewhere")
			}
		}
	}
}

// SweepOnce expires lapsed subscriptions and returns the number updated.
func (s Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	if s.Q == nil {
		return 0, errors.New("membership: sweeper not configured")
	}
	n, err := s.Q.ExpireLapsedSubscriptions(ctx, store.ToTimestamptz(s.now()))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if obs.SweepExpiredTotal != nil {
			obs.SweepExpiredTotal.Add(float64(n))
		}
		if obs.SubscriptionEventTotal != nil {
			obs.SubscriptionEventTotal.WithLabelValues("expired").Add(float64(n))
		}
		s.Logger.Info().Int64("expired", n).Msg("prime subscriptions expired")
	}
	return n, nil
}
