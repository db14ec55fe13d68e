package membership

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/primecart/backend-store/internal/common"
	"github.com/primecart/backend-store/internal/obs"
	"github.com/primecart/backend-store/internal/payment"
	"github.com/primecart/backend-store/internal/store"
)

// Querier is the subset of store queries the membership service needs.
type Querier interface {
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
	ActivateSubscription(ctx context.Context, arg store.ActivateSubscriptionParams) (store.User, error)
	CancelSubscription(ctx context.Context, id pgtype.UUID) (store.User, error)
}

// Service coordinates Prime subscription purchase and lifecycle.
type Service struct {
	Q        Querier
	Payments payment.Provider
	Currency string
	Logger   zerolog.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// StatusView is the membership summary returned to clients.
type StatusView struct {
	PrimeMember  bool          `json:"isPrimeMember"`
	Active       bool          `json:"active"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// IntentView is returned when opening a payment intent for a plan.
type IntentView struct {
	Plan     Plan   `json:"plan"`
	Provider string `json:"provider"`
	IntentID string `json:"intentId"`
	Status   string `json:"status"`
}

// RecordFromUser converts a stored user row into the gate's membership record.
func RecordFromUser(u store.User) *Record {
	rec := &Record{PrimeMember: u.PrimeMember}
	if u.SubStatus.Valid {
		rec.Subscription = &Subscription{
			StartDate: store.TimeOrZero(u.SubStart),
			EndDate:   store.TimeOrZero(u.SubEnd),
			Status:    Status(u.SubStatus.String),
			Plan:      store.TextOrEmpty(u.SubPlan),
			Price:     u.SubPrice,
		}
	}
	return rec
}

// RecordFor loads the viewer's membership record. Lookup failures degrade to
// a nil record so read paths fall back to non-discounted pricing.
func (s *Service) RecordFor(ctx context.Context, userID string) *Record {
	if s == nil || s.Q == nil || userID == "" {
		return nil
	}
	id, err := store.ToUUID(userID)
	if err != nil {
		s.Logger.Warn().Err(err).Str("user_id", userID).Msg("membership lookup degraded: bad user id")
		return nil
	}
	u, err := s.Q.GetUserByID(ctx, id)
	if err != nil {
		s.Logger.Warn().Err(err).Str("user_id", userID).Msg("membership lookup degraded: pricing as non-member")
		return nil
	}
	return RecordFromUser(u)
}

// CreateIntent opens a payment intent for the given plan.
func (s *Service) CreateIntent(ctx context.Context, userID, planCode string) (IntentView, error) {
	if s == nil || s.Payments == nil {
		return IntentView{}, errors.New("membership service not configured")
	}
	plan, ok := PlanByCode(planCode)
	if !ok {
		return IntentView{}, common.NewAppError("PLAN_NOT_FOUND", "unknown subscription plan", http.StatusNotFound, nil)
	}
	resp, err := s.Payments.CreateIntent(ctx, payment.IntentRequest{
		Reference: userID,
		Amount:    plan.Price,
		Currency:  s.Currency,
		Purpose:   "prime-subscription",
	})
	if err != nil {
		if obs.PaymentIntentTotal != nil {
			obs.PaymentIntentTotal.WithLabelValues("unknown", "error").Inc()
		}
		return IntentView{}, fmt.Errorf("create payment intent: %w", err)
	}
	if obs.PaymentIntentTotal != nil {
		obs.PaymentIntentTotal.WithLabelValues(resp.Provider, "created").Inc()
	}
	return IntentView{
		Plan:     plan,
		Provider: resp.Provider,
		IntentID: resp.IntentID,
		Status:   resp.Status,
	}, nil
}

// Subscribe verifies the payment intent settled and activates the plan.
// Activation is denied unless the provider reports the intent as paid.
func (s *Service) Subscribe(ctx context.Context, userID, planCode, intentID string) (StatusView, error) {
	if s == nil || s.Q == nil || s.Payments == nil {
		return StatusView{}, errors.New("membership service not configured")
	}
	plan, ok := PlanByCode(planCode)
	if !ok {
		return StatusView{}, common.NewAppError("PLAN_NOT_FOUND", "unknown subscription plan", http.StatusNotFound, nil)
	}
	if intentID == "" {
		return StatusView{}, common.ValidationError("intentId is required", nil)
	}
	status, err := s.Payments.GetIntentStatus(ctx, intentID)
	if err != nil || status != payment.StatusPaid {
		return StatusView{}, common.NewAppError("PAYMENT_REQUIRED", "payment has not settled", http.StatusPaymentRequired, err)
	}

	id, err := store.ToUUID(userID)
	if err != nil {
		return StatusView{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}
	current, err := s.Q.GetUserByID(ctx, id)
	if err != nil {
		return StatusView{}, fmt.Errorf("load user: %w", err)
	}
	now := s.now()
	if RecordFromUser(current).ActiveAt(now) {
		return StatusView{}, common.NewAppError("ALREADY_SUBSCRIBED", "an active subscription already exists", http.StatusConflict, nil)
	}

	updated, err := s.Q.ActivateSubscription(ctx, store.ActivateSubscriptionParams{
		ID:       id,
		Plan:     plan.Code,
		Price:    plan.Price,
		SubStart: store.ToTimestamptz(now),
		SubEnd:   store.ToTimestamptz(now.Add(plan.Duration)),
	})
	if err != nil {
		return StatusView{}, fmt.Errorf("activate subscription: %w", err)
	}
	if obs.SubscriptionEventTotal != nil {
		obs.SubscriptionEventTotal.WithLabelValues("activated").Inc()
	}
	return s.statusView(updated), nil
}

// Cancel flips the subscription to cancelled and clears the member flag.
func (s *Service) Cancel(ctx context.Context, userID string) (StatusView, error) {
	if s == nil || s.Q == nil {
		return StatusView{}, errors.New("membership service not configured")
	}
	id, err := store.ToUUID(userID)
	if err != nil {
		return StatusView{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}
	current, err := s.Q.GetUserByID(ctx, id)
	if err != nil {
		return StatusView{}, fmt.Errorf("load user: %w", err)
	}
	if !current.SubStatus.Valid {
		return StatusView{}, common.NewAppError("NO_SUBSCRIPTION", "no subscription to cancel", http.StatusConflict, nil)
	}
	updated, err := s.Q.CancelSubscription(ctx, id)
	if err != nil {
		return StatusView{}, fmt.Errorf("cancel subscription: %w", err)
	}
	if obs.SubscriptionEventTotal != nil {
		obs.SubscriptionEventTotal.WithLabelValues("cancelled").Inc()
	}
	return s.statusView(updated), nil
}

// StatusFor reports the viewer's current membership state.
func (s *Service) StatusFor(ctx context.Context, userID string) (StatusView, error) {
	if s == nil || s.Q == nil {
		return StatusView{}, errors.New("membership service not configured")
	}
	id, err := store.ToUUID(userID)
	if err != nil {
		return StatusView{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}
	u, err := s.Q.GetUserByID(ctx, id)
	if err != nil {
		return StatusView{}, fmt.Errorf("load user: %w", err)
	}
	return s.statusView(u), nil
}

func (s *Service) statusView(u store.User) StatusView {
	rec := RecordFromUser(u)
	return StatusView{
		PrimeMember:  rec.PrimeMember,
		Active:       rec.ActiveAt(s.now()),
		Subscription: rec.Subscription,
	}
}
