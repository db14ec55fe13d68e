package membership

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/primecart/backend-store/internal/common"
	"github.com/primecart/backend-store/internal/payment"
	"github.com/primecart/backend-store/internal/store"
)

type stubQuerier struct {
	user store.User
	err  error
}

func (s *stubQuerier) GetUserByID(_ context.Context, id pgtype.UUID) (store.User, error) {
	if s.err != nil {
		return store.User{}, s.err
	}
	if !store.UUIDEqual(s.user.ID, id) {
		return store.User{}, pgx.ErrNoRows
	}
	return s.user, nil
}

func (s *stubQuerier) ActivateSubscription(_ context.Context, arg store.ActivateSubscriptionParams) (store.User, error) {
	s.user.PrimeMember = true
	s.user.SubPlan = store.ToText(arg.Plan)
	s.user.SubStatus = store.ToText("active")
	s.user.SubPrice = arg.Price
	s.user.SubStart = arg.SubStart
	s.user.SubEnd = arg.SubEnd
	return s.user, nil
}

func (s *stubQuerier) CancelSubscription(_ context.Context, _ pgtype.UUID) (store.User, error) {
	s.user.PrimeMember = false
	s.user.SubStatus = store.ToText("cancelled")
	return s.user, nil
}

func newServiceForTest(t *testing.T) (*Service, *stubQuerier, *payment.Mock, string) {
	t.Helper()
	id := store.NewUUID()
	q := &stubQuerier{user: store.User{ID: id, Email: "viewer@example.com", Role: "customer"}}
	mock := &payment.Mock{}
	now := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	svc := &Service{Q: q, Payments: mock, Currency: "INR", Now: func() time.Time { return now }}
	return svc, q, mock, store.UUIDString(id)
}

func TestSubscribeActivatesPlan(t *testing.T) {
	svc, q, _, userID := newServiceForTest(t)

	intent, err := svc.CreateIntent(context.Background(), userID, "annual")
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.Plan.Price != 149900 {
		t.Fatalf("unexpected plan price %d", intent.Plan.Price)
	}

	view, err := svc.Subscribe(context.Background(), userID, "annual", intent.IntentID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !view.PrimeMember || !view.Active {
		t.Fatalf("expected active membership, got %+v", view)
	}
	if view.Subscription == nil || view.Subscription.Plan != "annual" {
		t.Fatalf("unexpected subscription %+v", view.Subscription)
	}

	wantEnd := svc.now().Add(365 * 24 * time.Hour)
	if !store.TimeOrZero(q.user.SubEnd).Equal(wantEnd) {
		t.Fatalf("end date = %v, want %v", store.TimeOrZero(q.user.SubEnd), wantEnd)
	}
}

func TestSubscribeRejectsUnsettledPayment(t *testing.T) {
	svc, _, mock, userID := newServiceForTest(t)
	mock.HoldPending = true

	intent, err := svc.CreateIntent(context.Background(), userID, "monthly")
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	_, err = svc.Subscribe(context.Background(), userID, "monthly", intent.IntentID)
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "PAYMENT_REQUIRED" {
		t.Fatalf("expected PAYMENT_REQUIRED, got %v", err)
	}

	mock.Settle(intent.IntentID)
	if _, err := svc.Subscribe(context.Background(), userID, "monthly", intent.IntentID); err != nil {
		t.Fatalf("subscribe after settle: %v", err)
	}
}

func TestSubscribeRejectsUnknownPlan(t *testing.T) {
	svc, _, _, userID := newServiceForTest(t)
	_, err := svc.Subscribe(context.Background(), userID, "lifetime", "whatever")
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "PLAN_NOT_FOUND" {
		t.Fatalf("expected PLAN_NOT_FOUND, got %v", err)
	}
}

func TestSubscribeRejectsDoubleActivation(t *testing.T) {
	svc, _, _, userID := newServiceForTest(t)

	intent, err := svc.CreateIntent(context.Background(), userID, "monthly")
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if _, err := svc.Subscribe(context.Background(), userID, "monthly", intent.IntentID); err != nil {
		t.Fatalf("first subscribe: %v", err)
	}

	second, err := svc.CreateIntent(context.Background(), userID, "annual")
	if err != nil {
		t.Fatalf("second intent: %v", err)
	}
	_, err = svc.Subscribe(context.Background(), userID, "annual", second.IntentID)
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "ALREADY_SUBSCRIBED" {
		t.Fatalf("expected ALREADY_SUBSCRIBED, got %v", err)
	}
}

func TestCancelClearsMembership(t *testing.T) {
	svc, q, _, userID := newServiceForTest(t)

	intent, _ := svc.CreateIntent(context.Background(), userID, "monthly")
	if _, err := svc.Subscribe(context.Background(), userID, "monthly", intent.IntentID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	view, err := svc.Cancel(context.Background(), userID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if view.PrimeMember || view.Active {
		t.Fatalf("expected cleared membership, got %+v", view)
	}
	if store.TextOrEmpty(q.user.SubStatus) != "cancelled" {
		t.Fatalf("expected cancelled status, got %q", store.TextOrEmpty(q.user.SubStatus))
	}
}

func TestRecordForDegradesOnError(t *testing.T) {
	svc, q, _, userID := newServiceForTest(t)
	q.err = errors.New("db down")

	var logs bytes.Buffer
	svc.Logger = zerolog.New(&logs)

	if rec := svc.RecordFor(context.Background(), userID); rec != nil {
		t.Fatalf("expected nil record on lookup failure, got %+v", rec)
	}
	if !strings.Contains(logs.String(), `"level":"warn"`) || !strings.Contains(logs.String(), "db down") {
		t.Fatalf("expected a warning for the failed lookup, got %q", logs.String())
	}

	logs.Reset()
	if rec := svc.RecordFor(context.Background(), "not-a-uuid"); rec != nil {
		t.Fatalf("expected nil record for malformed id, got %+v", rec)
	}
	if !strings.Contains(logs.String(), `"level":"warn"`) {
		t.Fatalf("expected a warning for the malformed id, got %q", logs.String())
	}
}
