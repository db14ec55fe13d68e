package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/primecart/backend-store/internal/membership"
	"github.com/primecart/backend-store/internal/pricing"
	"github.com/primecart/backend-store/internal/store"
)

// ErrNotFound indicates the requested cart or item could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Querier is the subset of store queries the cart service needs.
type Querier interface {
	GetActiveCartByUser(ctx context.Context, userID pgtype.UUID) (store.Cart, error)
	GetCartByID(ctx context.Context, id pgtype.UUID) (store.Cart, error)
	CreateCart(ctx context.Context, userID pgtype.UUID, expiresAt pgtype.Timestamptz) (store.Cart, error)
	TouchCart(ctx context.Context, id pgtype.UUID, expiresAt pgtype.Timestamptz) error
	FindCartItemByProduct(ctx context.Context, cartID, productID pgtype.UUID) (store.CartItem, error)
	GetCartItemByID(ctx context.Context, id pgtype.UUID) (store.CartItem, error)
	ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error)
	CreateCartItem(ctx context.Context, arg store.CreateCartItemParams) (store.CartItem, error)
	UpdateCartItemQty(ctx context.Context, id pgtype.UUID, qty int32, subtotal int64) (store.CartItem, error)
	DeleteCartItem(ctx context.Context, id, cartID pgtype.UUID) error
	GetProductByID(ctx context.Context, id pgtype.UUID) (store.Product, error)
}

// Service encapsulates cart domain operations. Unit prices are resolved once
// at add time and stored on the line; later quantity changes and checkout
// reuse the stored snapshot rather than re-resolving.
type Service struct {
	Q       Querier
	Members *membership.Service
	TTL     time.Duration
	Now     func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ItemView is a rendered cart line.
type ItemView struct {
	ID           string `json:"id"`
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Qty          int    `json:"qty"`
	UnitPrice    int64  `json:"unitPrice"`
	RegularPrice int64  `json:"regularPrice"`
	Subtotal     int64  `json:"subtotal"`
	IsDiscounted bool   `json:"isDiscounted"`
}

// View is the rendered cart with aggregate totals.
type View struct {
	CartID   string     `json:"cartId"`
	Items    []ItemView `json:"items"`
	Subtotal int64      `json:"subtotal"`
	Savings  int64      `json:"savings"`
}

// EnsureCart loads or creates the open cart for the user.
func (s *Service) EnsureCart(ctx context.Context, userID string) (store.Cart, error) {
	if s == nil || s.Q == nil {
		return store.Cart{}, errors.New("cart service not configured")
	}
	uid, err := store.ToUUID(userID)
	if err != nil {
		return store.Cart{}, fmt.Errorf("parse user id: %w", err)
	}
	expires := store.ToTimestamptz(s.now().Add(s.ttl()))
	cart, err := s.Q.GetActiveCartByUser(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.Q.CreateCart(ctx, uid, expires)
		}
		return store.Cart{}, err
	}
	_ = s.Q.TouchCart(ctx, cart.ID, expires)
	return cart, nil
}

// AddItem inserts or increments a cart line. New lines capture the viewer's
// resolved price at this instant; increments reuse the existing snapshot.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (View, error) {
	if s == nil || s.Q == nil {
		return View{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return View{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	cart, err := s.EnsureCart(ctx, userID)
	if err != nil {
		return View{}, err
	}
	pID, err := store.ToUUID(productID)
	if err != nil {
		return View{}, fmt.Errorf("parse product id: %w", err)
	}

	expires := store.ToTimestamptz(s.now().Add(s.ttl()))
	item, err := s.Q.FindCartItemByProduct(ctx, cart.ID, pID)
	if err == nil {
		newQty := item.Qty + int32(qty)
		newSubtotal := int64(newQty) * item.UnitPrice
		if _, err := s.Q.UpdateCartItemQty(ctx, item.ID, newQty, newSubtotal); err != nil {
			return View{}, err
		}
		_ = s.Q.TouchCart(ctx, cart.ID, expires)
		return s.render(ctx, cart)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return View{}, err
	}

	product, err := s.Q.GetProductByID(ctx, pID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, fmt.Errorf("product not found: %w", ErrNotFound)
		}
		return View{}, err
	}
	if product.Stock <= 0 {
		return View{}, fmt.Errorf("product out of stock: %w", ErrInvalidInput)
	}

	var viewer *membership.Record
	if s.Members != nil {
		viewer = s.Members.RecordFor(ctx, userID)
	}
	resolved := pricing.Resolve(product.RegularPrice, pricing.Config{
		Eligible: product.PrimeEligible,
		Kind:     pricing.Kind(store.TextOrEmpty(product.DiscountKind)),
		Value:    product.DiscountValue,
	}, viewer, s.now())

	subtotal := int64(qty) * resolved.UnitPrice
	if _, err := s.Q.CreateCartItem(ctx, store.CreateCartItemParams{
		CartID:       cart.ID,
		ProductID:    pID,
		Name:         product.Name,
		Slug:         product.Slug,
		Qty:          int32(qty),
		UnitPrice:    resolved.UnitPrice,
		RegularPrice: product.RegularPrice,
		Subtotal:     subtotal,
	}); err != nil {
		return View{}, err
	}
	_ = s.Q.TouchCart(ctx, cart.ID, expires)
	return s.render(ctx, cart)
}

// UpdateQty replaces a line's quantity, keeping the stored price snapshot.
func (s *Service) UpdateQty(ctx context.Context, userID, itemID string, qty int) (View, error) {
	if s == nil || s.Q == nil {
		return View{}, errors.New("cart service not configured")
	}
	if qty <= 0 {
		return View{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	cart, err := s.EnsureCart(ctx, userID)
	if err != nil {
		return View{}, err
	}
	id, err := store.ToUUID(itemID)
	if err != nil {
		return View{}, fmt.Errorf("parse item id: %w", err)
	}
	item, err := s.Q.GetCartItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, ErrNotFound
		}
		return View{}, err
	}
	if !store.UUIDEqual(item.CartID, cart.ID) {
		return View{}, ErrNotFound
	}
	if _, err := s.Q.UpdateCartItemQty(ctx, item.ID, int32(qty), int64(qty)*item.UnitPrice); err != nil {
		return View{}, err
	}
	_ = s.Q.TouchCart(ctx, cart.ID, store.ToTimestamptz(s.now().Add(s.ttl())))
	return s.render(ctx, cart)
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (View, error) {
	if s == nil || s.Q == nil {
		return View{}, errors.New("cart service not configured")
	}
	cart, err := s.EnsureCart(ctx, userID)
	if err != nil {
		return View{}, err
	}
	id, err := store.ToUUID(itemID)
	if err != nil {
		return View{}, fmt.Errorf("parse item id: %w", err)
	}
	if err := s.Q.DeleteCartItem(ctx, id, cart.ID); err != nil {
		return View{}, err
	}
	_ = s.Q.TouchCart(ctx, cart.ID, store.ToTimestamptz(s.now().Add(s.ttl())))
	return s.render(ctx, cart)
}

// Get renders the user's current cart.
func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	if s == nil || s.Q == nil {
		return View{}, errors.New("cart service not configured")
	}
	cart, err := s.EnsureCart(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return s.render(ctx, cart)
}

func (s *Service) render(ctx context.Context, cart store.Cart) (View, error) {
	items, err := s.Q.ListCartItems(ctx, cart.ID)
	if err != nil {
		return View{}, err
	}
	view := View{CartID: store.UUIDString(cart.ID), Items: make([]ItemView, 0, len(items))}
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		view.Items = append(view.Items, ItemView{
			ID:           store.UUIDString(it.ID),
			ProductID:    store.UUIDString(it.ProductID),
			Name:         it.Name,
			Slug:         it.Slug,
			Qty:          int(it.Qty),
			UnitPrice:    it.UnitPrice,
			RegularPrice: it.RegularPrice,
			Subtotal:     it.Subtotal,
			IsDiscounted: it.UnitPrice < it.RegularPrice,
		})
		lines = append(lines, pricing.Line{
			Qty:          int(it.Qty),
			UnitPrice:    it.UnitPrice,
			RegularPrice: it.RegularPrice,
		})
	}
	summary := pricing.Totals(lines, 0, 0)
	view.Subtotal = summary.Subtotal
	view.Savings = summary.Savings
	return view, nil
}
