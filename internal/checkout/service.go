package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/primecart/backend-store/internal/common"
	"github.com/primecart/backend-store/internal/obs"
	"github.com/primecart/backend-store/internal/pricing"
	"github.com/primecart/backend-store/internal/store"
)

// Shipping methods and their flat rates in minor units.
const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"

	expressRate = 1500
)

// Input is the checkout request payload.
type Input struct {
	ShippingMethod string `json:"shippingMethod"`
}

// ItemView is an order line as returned from checkout.
type ItemView struct {
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Qty          int    `json:"qty"`
	UnitPrice    int64  `json:"unitPrice"`
	RegularPrice int64  `json:"regularPrice"`
	Subtotal     int64  `json:"subtotal"`
}

// Output is the placed order with its frozen totals.
type Output struct {
	OrderID  string     `json:"orderId"`
	Status   string     `json:"status"`
	Currency string     `json:"currency"`
	Subtotal int64      `json:"subtotal"`
	Savings  int64      `json:"savings"`
	Tax      int64      `json:"tax"`
	Shipping int64      `json:"shipping"`
	Total    int64      `json:"total"`
	Items    []ItemView `json:"items"`
}

// Service turns the user's open cart into an order inside one transaction.
// Order lines copy the cart's stored price snapshots; prices are never
// re-resolved at checkout.
type Service struct {
	Pool     *pgxpool.Pool
	Q        *store.Queries
	TaxBps   int
	Currency string
}

// ShippingRate maps a shipping method to its flat price.
func ShippingRate(method string) (int64, error) {
	switch method {
	case "", ShippingStandard:
		return 0, nil
	case ShippingExpress:
		return expressRate, nil
	default:
		return 0, common.ValidationError("unknown shipping method", nil)
	}
}

// Summarize computes order totals from cart line snapshots.
func Summarize(items []store.CartItem, taxBps int, shipping int64) pricing.Summary {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{
			Qty:          int(it.Qty),
			UnitPrice:    it.UnitPrice,
			RegularPrice: it.RegularPrice,
		})
	}
	return pricing.Totals(lines, taxBps, shipping)
}

// Create places an order from the user's open cart and closes the cart.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Output, error) {
	if s == nil || s.Pool == nil || s.Q == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	shipping, err := ShippingRate(in.ShippingMethod)
	if err != nil {
		return Output{}, err
	}
	uid, err := store.ToUUID(userID)
	if err != nil {
		return Output{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	qtx := s.Q.WithTx(tx)

	cartRow, err := qtx.GetActiveCartByUser(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Output{}, s.fail(common.NewAppError("CART_EMPTY", "no open cart to check out", http.StatusConflict, err))
		}
		return Output{}, s.fail(err)
	}
	items, err := qtx.ListCartItems(ctx, cartRow.ID)
	if err != nil {
		return Output{}, s.fail(err)
	}
	if len(items) == 0 {
		return Output{}, s.fail(common.NewAppError("CART_EMPTY", "cart is empty", http.StatusConflict, nil))
	}

	summary := Summarize(items, s.TaxBps, shipping)
	order, err := qtx.CreateOrder(ctx, store.CreateOrderParams{
		UserID:   uid,
		Status:   "PLACED",
		Currency: s.Currency,
		Subtotal: summary.Subtotal,
		Savings:  summary.Savings,
		Tax:      summary.Tax,
		Shipping: summary.Shipping,
		Total:    summary.Total,
	})
	if err != nil {
		return Output{}, s.fail(fmt.Errorf("create order: %w", err))
	}
	out := Output{
		OrderID:  store.UUIDString(order.ID),
		Status:   order.Status,
		Currency: order.Currency,
		Subtotal: order.Subtotal,
		Savings:  order.Savings,
		Tax:      order.Tax,
		Shipping: order.Shipping,
		Total:    order.Total,
		Items:    make([]ItemView, 0, len(items)),
	}
	for _, it := range items {
		if err := qtx.CreateOrderItem(ctx, store.CreateOrderItemParams{
			OrderID:      order.ID,
			ProductID:    it.ProductID,
			Name:         it.Name,
			Slug:         it.Slug,
			Qty:          it.Qty,
			UnitPrice:    it.UnitPrice,
			RegularPrice: it.RegularPrice,
			Subtotal:     it.Subtotal,
		}); err != nil {
			return Output{}, s.fail(fmt.Errorf("create order item: %w", err))
		}
		out.Items = append(out.Items, ItemView{
			ProductID:    store.UUIDString(it.ProductID),
			Name:         it.Name,
			Slug:         it.Slug,
			Qty:          int(it.Qty),
			UnitPrice:    it.UnitPrice,
			RegularPrice: it.RegularPrice,
			Subtotal:     it.Subtotal,
		})
	}
	if err := qtx.MarkCartConverted(ctx, cartRow.ID); err != nil {
		return Output{}, s.fail(fmt.Errorf("close cart: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, s.fail(fmt.Errorf("commit checkout: %w", err))
	}
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues("placed").Inc()
	}
	return out, nil
}

func (s *Service) fail(err error) error {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues("failed").Inc()
	}
	return err
}
