package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/primecart/backend-store/internal/membership"
	"github.com/primecart/backend-store/internal/store"
)

type stubQuerier struct {
	carts    map[string]store.Cart
	items    map[string]store.CartItem
	products map[string]store.Product
}

func newStubQuerier() *stubQuerier {
	return &stubQuerier{
		carts:    map[string]store.Cart{},
		items:    map[string]store.CartItem{},
		products: map[string]store.Product{},
	}
}

func (s *stubQuerier) GetActiveCartByUser(_ context.Context, userID pgtype.UUID) (store.Cart, error) {
	for _, c := range s.carts {
		if store.UUIDEqual(c.UserID, userID) && c.Status == "open" {
			return c, nil
		}
	}
	return store.Cart{}, pgx.ErrNoRows
}

func (s *stubQuerier) GetCartByID(_ context.Context, id pgtype.UUID) (store.Cart, error) {
	c, ok := s.carts[store.UUIDString(id)]
	if !ok {
		return store.Cart{}, pgx.ErrNoRows
	}
	return c, nil
}

func (s *stubQuerier) CreateCart(_ context.Context, userID pgtype.UUID, expiresAt pgtype.Timestamptz) (store.Cart, error) {
	c := store.Cart{ID: store.NewUUID(), UserID: userID, Status: "open", ExpiresAt: expiresAt}
	s.carts[store.UUIDString(c.ID)] = c
	return c, nil
}

func (s *stubQuerier) TouchCart(_ context.Context, id pgtype.UUID, expiresAt pgtype.Timestamptz) error {
	c, ok := s.carts[store.UUIDString(id)]
	if !ok {
		return pgx.ErrNoRows
	}
	c.ExpiresAt = expiresAt
	s.carts[store.UUIDString(id)] = c
	return nil
}

func (s *stubQuerier) FindCartItemByProduct(_ context.Context, cartID, productID pgtype.UUID) (store.CartItem, error) {
	for _, it := range s.items {
		if store.UUIDEqual(it.CartID, cartID) && store.UUIDEqual(it.ProductID, productID) {
			return it, nil
		}
	}
	return store.CartItem{}, pgx.ErrNoRows
}

func (s *stubQuerier) GetCartItemByID(_ context.Context, id pgtype.UUID) (store.CartItem, error) {
	it, ok := s.items[store.UUIDString(id)]
	if !ok {
		return store.CartItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (s *stubQuerier) ListCartItems(_ context.Context, cartID pgtype.UUID) ([]store.CartItem, error) {
	var out []store.CartItem
	for _, it := range s.items {
		if store.UUIDEqual(it.CartID, cartID) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubQuerier) CreateCartItem(_ context.Context, arg store.CreateCartItemParams) (store.CartItem, error) {
	it := store.CartItem{
		ID:           store.NewUUID(),
		CartID:       arg.CartID,
		ProductID:    arg.ProductID,
		Name:         arg.Name,
		Slug:         arg.Slug,
		Qty:          arg.Qty,
		UnitPrice:    arg.UnitPrice,
		RegularPrice: arg.RegularPrice,
		Subtotal:     arg.Subtotal,
	}
	s.items[store.UUIDString(it.ID)] = it
	return it, nil
}

func (s *stubQuerier) UpdateCartItemQty(_ context.Context, id pgtype.UUID, qty int32, subtotal int64) (store.CartItem, error) {
	it, ok := s.items[store.UUIDString(id)]
	if !ok {
		return store.CartItem{}, pgx.ErrNoRows
	}
	it.Qty = qty
	it.Subtotal = subtotal
	s.items[store.UUIDString(id)] = it
	return it, nil
}

func (s *stubQuerier) DeleteCartItem(_ context.Context, id, cartID pgtype.UUID) error {
	it, ok := s.items[store.UUIDString(id)]
	if ok && store.UUIDEqual(it.CartID, cartID) {
		delete(s.items, store.UUIDString(id))
	}
	return nil
}

func (s *stubQuerier) GetProductByID(_ context.Context, id pgtype.UUID) (store.Product, error) {
	for _, p := range s.products {
		if store.UUIDEqual(p.ID, id) {
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

// stubUsers backs the membership gate with a single mutable user row.
type stubUsers struct {
	user store.User
}

func (s *stubUsers) GetUserByID(_ context.Context, id pgtype.UUID) (store.User, error) {
	if !store.UUIDEqual(s.user.ID, id) {
		return store.User{}, pgx.ErrNoRows
	}
	return s.user, nil
}

func (s *stubUsers) ActivateSubscription(_ context.Context, arg store.ActivateSubscriptionParams) (store.User, error) {
	return s.user, nil
}

func (s *stubUsers) CancelSubscription(_ context.Context, id pgtype.UUID) (store.User, error) {
	return s.user, nil
}

func activeMemberAt(now time.Time) store.User {
	return store.User{
		ID:          store.NewUUID(),
		Email:       "member@example.com",
		Name:        "Member",
		Role:        "customer",
		PrimeMember: true,
		SubPlan:     store.ToText("monthly"),
		SubStatus:   store.ToText("active"),
		SubPrice:    19900,
		SubStart:    store.ToTimestamptz(now.Add(-24 * time.Hour)),
		SubEnd:      store.ToTimestamptz(now.Add(29 * 24 * time.Hour)),
	}
}

func seedProduct(q *stubQuerier) store.Product {
	p := store.Product{
		ID:              store.NewUUID(),
		Slug:            "wireless-headphones",
		Name:            "Wireless Headphones",
		RegularPrice:    19900,
		PrimeEligible:   true,
		DiscountKind:    store.ToText("percentage"),
		DiscountValue:   2500,
		DiscountedPrice: 14925,
		Savings:         4975,
		Stock:           10,
	}
	q.products[p.Slug] = p
	return p
}

func newTestService(q *stubQuerier, users *stubUsers, now *time.Time) *Service {
	clock := func() time.Time { return *now }
	return &Service{
		Q:       q,
		Members: &membership.Service{Q: users, Currency: "USD", Now: clock},
		TTL:     7 * 24 * time.Hour,
		Now:     clock,
	}
}

func TestAddItemSnapshotsMemberPrice(t *testing.T) {
	q := newStubQuerier()
	product := seedProduct(q)
	now := time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)
	users := &stubUsers{user: activeMemberAt(now)}
	svc := newTestService(q, users, &now)
	userID := store.UUIDString(users.user.ID)

	view, err := svc.AddItem(context.Background(), userID, store.UUIDString(product.ID), 1)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Items))
	}
	line := view.Items[0]
	if line.UnitPrice != 14925 || line.RegularPrice != 19900 || !line.IsDiscounted {
		t.Fatalf("member snapshot wrong: %+v", line)
	}
	if view.Subtotal != 14925 || view.Savings != 4975 {
		t.Fatalf("totals = %d/%d, want 14925/4975", view.Subtotal, view.Savings)
	}
}

func TestIncrementKeepsSnapshotAfterMembershipLapses(t *testing.T) {
	q := newStubQuerier()
	product := seedProduct(q)
	now := time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)
	users := &stubUsers{user: activeMemberAt(now)}
	svc := newTestService(q, users, &now)
	userID := store.UUIDString(users.user.ID)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 1); err != nil {
		t.Fatalf("first add: %v", err)
	}

	// Membership lapses between the first add and the second.
	now = now.Add(45 * 24 * time.Hour)
	users.user.SubStatus = store.ToText("expired")
	users.user.PrimeMember = false

	view, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 1)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	line := view.Items[0]
	if line.Qty != 2 || line.UnitPrice != 14925 || line.Subtotal != 29850 {
		t.Fatalf("increment must reuse the stored snapshot, got %+v", line)
	}
}

func TestGuestAddsAtRegularPrice(t *testing.T) {
	q := newStubQuerier()
	product := seedProduct(q)
	now := time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)
	guest := &stubUsers{user: store.User{ID: store.NewUUID(), Role: "customer"}}
	svc := newTestService(q, guest, &now)

	view, err := svc.AddItem(context.Background(), store.UUIDString(guest.user.ID), store.UUIDString(product.ID), 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	line := view.Items[0]
	if line.UnitPrice != 19900 || line.IsDiscounted {
		t.Fatalf("non-member must pay regular price, got %+v", line)
	}
	if view.Subtotal != 39800 || view.Savings != 0 {
		t.Fatalf("totals = %d/%d, want 39800/0", view.Subtotal, view.Savings)
	}
}

func TestUpdateQtyReusesSnapshot(t *testing.T) {
	q := newStubQuerier()
	product := seedProduct(q)
	now := time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)
	users := &stubUsers{user: activeMemberAt(now)}
	svc := newTestService(q, users, &now)
	userID := store.UUIDString(users.user.ID)
	ctx := context.Background()

	view, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 1)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	itemID := view.Items[0].ID

	now = now.Add(60 * 24 * time.Hour)
	users.user.SubStatus = store.ToText("expired")

	view, err = svc.UpdateQty(ctx, userID, itemID, 3)
	if err != nil {
		t.Fatalf("update qty: %v", err)
	}
	line := view.Items[0]
	if line.Qty != 3 || line.UnitPrice != 14925 || line.Subtotal != 44775 {
		t.Fatalf("qty update must keep the snapshot, got %+v", line)
	}
	if view.Savings != 3*4975 {
		t.Fatalf("savings = %d, want %d", view.Savings, 3*4975)
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	q := newStubQuerier()
	product := seedProduct(q)
	now := time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)
	users := &stubUsers{user: activeMemberAt(now)}
	svc := newTestService(q, users, &now)
	userID := store.UUIDString(users.user.ID)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero qty should be invalid, got %v", err)
	}
	if _, err := svc.AddItem(ctx, userID, store.UUIDString(store.NewUUID()), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown product should be not found, got %v", err)
	}

	product.Stock = 0
	q.products[product.Slug] = product
	if _, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("out of stock should be invalid, got %v", err)
	}
}

func TestUpdateQtyRejectsForeignItem(t *testing.T) {
	q := newStubQuerier()
	product := seedProduct(q)
	now := time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)
	users := &stubUsers{user: activeMemberAt(now)}
	svc := newTestService(q, users, &now)
	ctx := context.Background()

	otherCart, _ := q.CreateCart(ctx, store.NewUUID(), store.ToTimestamptz(now.Add(time.Hour)))
	foreign, _ := q.CreateCartItem(ctx, store.CreateCartItemParams{
		CartID:       otherCart.ID,
		ProductID:    product.ID,
		Name:         product.Name,
		Slug:         product.Slug,
		Qty:          1,
		UnitPrice:    19900,
		RegularPrice: 19900,
		Subtotal:     19900,
	})

	userID := store.UUIDString(users.user.ID)
	if _, err := svc.UpdateQty(ctx, userID, store.UUIDString(foreign.ID), 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign item should be hidden, got %v", err)
	}
}

func TestRemoveItemEmptiesCart(t *testing.T) {
	q := newStubQuerier()
	product := seedProduct(q)
	now := time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)
	users := &stubUsers{user: activeMemberAt(now)}
	svc := newTestService(q, users, &now)
	userID := store.UUIDString(users.user.ID)
	ctx := context.Background()

	view, err := svc.AddItem(ctx, userID, store.UUIDString(product.ID), 1)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	view, err = svc.RemoveItem(ctx, userID, view.Items[0].ID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(view.Items) != 0 || view.Subtotal != 0 {
		t.Fatalf("cart should be empty, got %+v", view)
	}
}
