package pricing

import (
	"testing"
	"time"

	"github.com/primecart/backend-store/internal/membership"
)

var resolveNow = time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)

func activeMember() *membership.Record {
	return &membership.Record{
		PrimeMember: true,
		Subscription: &membership.Subscription{
			StartDate: resolveNow.Add(-24 * time.Hour),
			EndDate:   resolveNow.Add(30 * 24 * time.Hour),
			Status:    membership.StatusActive,
			Plan:      "monthly",
			Price:     19900,
		},
	}
}

func TestResolveGuestPaysRegular(t *testing.T) {
	cfg := Config{Eligible: true, Kind: KindPercentage, Value: 2500}
	got := Resolve(19900, cfg, nil, resolveNow)
	if got.UnitPrice != 19900 || got.Discounted || got.StrikePrice != nil {
		t.Fatalf("guest resolution = %+v", got)
	}
}

func TestResolveMemberGetsDiscount(t *testing.T) {
	cfg := Config{Eligible: true, Kind: KindPercentage, Value: 2500}
	got := Resolve(19900, cfg, activeMember(), resolveNow)
	if got.UnitPrice != 14925 || !got.Discounted {
		t.Fatalf("member resolution = %+v", got)
	}
	if got.StrikePrice == nil || *got.StrikePrice != 19900 {
		t.Fatalf("strike price = %v, want 19900", got.StrikePrice)
	}
}

func TestResolveIneligibleProduct(t *testing.T) {
	cfg := Config{Eligible: false, Kind: KindPercentage, Value: 2500}
	got := Resolve(19900, cfg, activeMember(), resolveNow)
	if got.UnitPrice != 19900 || got.Discounted {
		t.Fatalf("ineligible product should price as regular, got %+v", got)
	}
}

func TestResolveLapsedMembership(t *testing.T) {
	cfg := Config{Eligible: true, Kind: KindPercentage, Value: 2500}

	lapsed := activeMember()
	lapsed.Subscription.EndDate = resolveNow.Add(-time.Minute)
	if got := Resolve(19900, cfg, lapsed, resolveNow); got.Discounted {
		t.Fatalf("lapsed member should pay regular, got %+v", got)
	}

	// End date boundary is exclusive.
	boundary := activeMember()
	boundary.Subscription.EndDate = resolveNow
	if got := Resolve(19900, cfg, boundary, resolveNow); got.Discounted {
		t.Fatalf("membership ending exactly now should not discount, got %+v", got)
	}

	cancelled := activeMember()
	cancelled.Subscription.Status = membership.StatusCancelled
	if got := Resolve(19900, cfg, cancelled, resolveNow); got.Discounted {
		t.Fatalf("cancelled member should pay regular, got %+v", got)
	}
}

func TestResolveZeroSavingsHasNoStrike(t *testing.T) {
	// 50% of one minor unit rounds back to one: no visible discount.
	cfg := Config{Eligible: true, Kind: KindPercentage, Value: 5000}
	got := Resolve(1, cfg, activeMember(), resolveNow)
	if got.Discounted || got.StrikePrice != nil {
		t.Fatalf("zero-savings resolution should not mark discounted, got %+v", got)
	}
}

func TestResolveInvalidConfigFailsClosed(t *testing.T) {
	cfg := Config{Eligible: true, Kind: KindPercentage, Value: 12000}
	got := Resolve(19900, cfg, activeMember(), resolveNow)
	if got.UnitPrice != 19900 || got.Discounted {
		t.Fatalf("invalid config should degrade to regular price, got %+v", got)
	}
}
