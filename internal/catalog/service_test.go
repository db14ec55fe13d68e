package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"

	"github.com/primecart/backend-store/internal/common"
	"github.com/primecart/backend-store/internal/membership"
	"github.com/primecart/backend-store/internal/store"
)

type stubQueries struct {
	products  map[string]store.Product
	listCalls int
}

func (s *stubQueries) ListProducts(_ context.Context, arg store.ListProductsParams) ([]store.Product, error) {
	s.listCalls++
	var out []store.Product
	for _, p := range s.products {
		if arg.PrimeOnly && !p.PrimeEligible {
			continue
		}
		if arg.Category.Valid && store.TextOrEmpty(p.Category) != arg.Category.String {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubQueries) CountProducts(_ context.Context, category pgtype.Text, primeOnly bool) (int64, error) {
	var n int64
	for _, p := range s.products {
		if primeOnly && !p.PrimeEligible {
			continue
		}
		if category.Valid && store.TextOrEmpty(p.Category) != category.String {
			continue
		}
		n++
	}
	return n, nil
}

func (s *stubQueries) GetProductBySlug(_ context.Context, slug string) (store.Product, error) {
	p, ok := s.products[slug]
	if !ok {
		return store.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (s *stubQueries) GetProductByID(_ context.Context, id pgtype.UUID) (store.Product, error) {
	for _, p := range s.products {
		if store.UUIDEqual(p.ID, id) {
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

func (s *stubQueries) CreateProduct(_ context.Context, arg store.CreateProductParams) (store.Product, error) {
	p := store.Product{
		ID:              store.NewUUID(),
		Slug:            arg.Slug,
		Name:            arg.Name,
		Description:     arg.Description,
		Category:        arg.Category,
		RegularPrice:    arg.RegularPrice,
		PrimeEligible:   arg.PrimeEligible,
		DiscountKind:    arg.DiscountKind,
		DiscountValue:   arg.DiscountValue,
		DiscountedPrice: arg.DiscountedPrice,
		Savings:         arg.Savings,
		Stock:           arg.Stock,
	}
	if s.products == nil {
		s.products = map[string]store.Product{}
	}
	s.products[p.Slug] = p
	return p, nil
}

func (s *stubQueries) UpdateProductPricing(_ context.Context, arg store.UpdateProductPricingParams) (store.Product, error) {
	for slug, p := range s.products {
		if store.UUIDEqual(p.ID, arg.ID) {
			p.RegularPrice = arg.RegularPrice
			p.PrimeEligible = arg.PrimeEligible
			p.DiscountKind = arg.DiscountKind
			p.DiscountValue = arg.DiscountValue
			p.DiscountedPrice = arg.DiscountedPrice
			p.Savings = arg.Savings
			s.products[slug] = p
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

func (s *stubQueries) DeleteProduct(_ context.Context, id pgtype.UUID) error {
	for slug, p := range s.products {
		if store.UUIDEqual(p.ID, id) {
			delete(s.products, slug)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func primeMember(now time.Time) *membership.Record {
	return &membership.Record{
		PrimeMember: true,
		Subscription: &membership.Subscription{
			StartDate: now.Add(-24 * time.Hour),
			EndDate:   now.Add(30 * 24 * time.Hour),
			Status:    membership.StatusActive,
			Plan:      "monthly",
			Price:     19900,
		},
	}
}

func newTestService(t *testing.T, q *stubQueries) (*Service, time.Time) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)
	svc, err := NewService(ServiceConfig{
		Queries:      q,
		Cache:        NewCache(client, time.Minute),
		Now:          func() time.Time { return now },
		DefaultPage:  1,
		DefaultLimit: 20,
		MaxLimit:     100,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, now
}

func seedHeadphones() *stubQueries {
	return &stubQueries{products: map[string]store.Product{
		"wireless-headphones": {
			ID:              store.NewUUID(),
			Slug:            "wireless-headphones",
			Name:            "Wireless Headphones",
			RegularPrice:    19900,
			PrimeEligible:   true,
			DiscountKind:    store.ToText("percentage"),
			DiscountValue:   2500,
			DiscountedPrice: 14925,
			Savings:         4975,
			Stock:           5,
		},
	}}
}

func TestGetProductPricesPerViewer(t *testing.T) {
	q := seedHeadphones()
	svc, now := newTestService(t, q)
	ctx := context.Background()

	guest, err := svc.GetProduct(ctx, "wireless-headphones", nil)
	if err != nil {
		t.Fatalf("get as guest: %v", err)
	}
	if guest.UnitPrice != 19900 || guest.IsDiscounted || guest.StrikePrice != nil {
		t.Fatalf("guest should see regular price, got %+v", guest)
	}

	member, err := svc.GetProduct(ctx, "wireless-headphones", primeMember(now))
	if err != nil {
		t.Fatalf("get as member: %v", err)
	}
	if member.UnitPrice != 14925 || !member.IsDiscounted {
		t.Fatalf("member should see 14925 discounted, got %+v", member)
	}
	if member.StrikePrice == nil || *member.StrikePrice != 19900 {
		t.Fatalf("member strike price should be 19900, got %v", member.StrikePrice)
	}
}

func TestListServesCachedRowsButResolvesPerViewer(t *testing.T) {
	q := seedHeadphones()
	svc, now := newTestService(t, q)
	ctx := context.Background()
	params := ListParams{Page: 1, Limit: 20}

	first, err := svc.ListProducts(ctx, params, nil)
	if err != nil {
		t.Fatalf("first list: %v", err)
	}
	if first.Items[0].UnitPrice != 19900 {
		t.Fatalf("guest list price = %d", first.Items[0].UnitPrice)
	}

	second, err := svc.ListProducts(ctx, params, primeMember(now))
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if q.listCalls != 1 {
		t.Fatalf("expected cache hit on second list, db called %d times", q.listCalls)
	}
	if second.Items[0].UnitPrice != 14925 || !second.Items[0].IsDiscounted {
		t.Fatalf("member should see discounted price from cached rows, got %+v", second.Items[0])
	}
}

func TestExpiredMemberSeesRegularPrice(t *testing.T) {
	q := seedHeadphones()
	svc, now := newTestService(t, q)

	lapsed := primeMember(now)
	lapsed.Subscription.EndDate = now.Add(-time.Hour)

	view, err := svc.GetProduct(context.Background(), "wireless-headphones", lapsed)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.UnitPrice != 19900 || view.IsDiscounted {
		t.Fatalf("lapsed member should see regular price, got %+v", view)
	}
}

func TestUpdatePricingRejectsInvalidPercentAtomically(t *testing.T) {
	q := seedHeadphones()
	svc, _ := newTestService(t, q)
	id := store.UUIDString(q.products["wireless-headphones"].ID)

	_, err := svc.UpdatePricing(context.Background(), id, PricingInput{
		RegularPrice:  19900,
		PrimeEligible: true,
		DiscountKind:  "percentage",
		DiscountValue: 12000,
	})
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}

	// Nothing was persisted.
	stored := q.products["wireless-headphones"]
	if stored.DiscountValue != 2500 || stored.DiscountedPrice != 14925 {
		t.Fatalf("rejected write must not mutate the row, got %+v", stored)
	}
}

func TestCreateProductRequiresKindWhenEligible(t *testing.T) {
	svc, _ := newTestService(t, &stubQueries{})

	_, err := svc.CreateProduct(context.Background(), ProductInput{
		Slug:          "prime-mug",
		Name:          "Prime Mug",
		RegularPrice:  5000,
		PrimeEligible: true,
	})
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateProductDerivesDiscountFields(t *testing.T) {
	q := &stubQueries{}
	svc, _ := newTestService(t, q)

	created, err := svc.CreateProduct(context.Background(), ProductInput{
		Slug:          "fixed-deal",
		Name:          "Fixed Deal",
		RegularPrice:  5000,
		PrimeEligible: true,
		DiscountKind:  "fixed",
		DiscountValue: 7500,
		Stock:         3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Fixed discount larger than the price clamps at zero.
	if created.DiscountedPrice != 0 || created.Savings != 5000 {
		t.Fatalf("expected clamp to 0/5000, got %d/%d", created.DiscountedPrice, created.Savings)
	}
}

func TestAdminWriteInvalidatesDetailCache(t *testing.T) {
	q := seedHeadphones()
	svc, now := newTestService(t, q)
	ctx := context.Background()

	if _, err := svc.GetProduct(ctx, "wireless-headphones", nil); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	id := store.UUIDString(q.products["wireless-headphones"].ID)
	if _, err := svc.UpdatePricing(ctx, id, PricingInput{
		RegularPrice:  10000,
		PrimeEligible: true,
		DiscountKind:  "percentage",
		DiscountValue: 1000,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	view, err := svc.GetProduct(ctx, "wireless-headphones", primeMember(now))
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if view.UnitPrice != 9000 {
		t.Fatalf("expected fresh price 9000 after invalidation, got %d", view.UnitPrice)
	}
}
