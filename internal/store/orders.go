package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Order is a placed order with its frozen pricing summary.
type Order struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	Status    string
	Currency  string
	Subtotal  int64
	Savings   int64
	Tax       int64
	Shipping  int64
	Total     int64
	CreatedAt pgtype.Timestamptz
}

// OrderItem is a line copied from the cart at checkout time.
type OrderItem struct {
	ID           pgtype.UUID
	OrderID      pgtype.UUID
	ProductID    pgtype.UUID
	Name         string
	Slug         string
	Qty          int32
	UnitPrice    int64
	RegularPrice int64
	Subtotal     int64
}

const orderColumns = `id, user_id, status, currency, subtotal, savings, tax, shipping, total, created_at`

const orderItemColumns = `id, order_id, product_id, name, slug, qty, unit_price, regular_price, subtotal`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Currency,
		&o.Subtotal, &o.Savings, &o.Tax, &o.Shipping, &o.Total, &o.CreatedAt)
	return o, err
}

func scanOrderItem(row pgx.Row) (OrderItem, error) {
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Slug,
		&it.Qty, &it.UnitPrice, &it.RegularPrice, &it.Subtotal)
	return it, err
}

// CreateOrderParams carries a new order with its computed totals.
type CreateOrderParams struct {
	UserID   pgtype.UUID
	Status   string
	Currency string
	Subtotal int64
	Savings  int64
	Tax      int64
	Shipping int64
	Total    int64
}

// CreateOrder inserts an order header.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, status, currency, subtotal, savings, tax, shipping, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+orderColumns,
		arg.UserID, arg.Status, arg.Currency, arg.Subtotal, arg.Savings,
		arg.Tax, arg.Shipping, arg.Total))
}

// CreateOrderItemParams carries a line copied from the cart snapshot.
type CreateOrderItemParams struct {
	OrderID      pgtype.UUID
	ProductID    pgtype.UUID
	Name         string
	Slug         string
	Qty          int32
	UnitPrice    int64
	RegularPrice int64
	Subtotal     int64
}

// CreateOrderItem inserts an order line.
func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO order_items (order_id, product_id, name, slug, qty, unit_price, regular_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		arg.OrderID, arg.ProductID, arg.Name, arg.Slug, arg.Qty,
		arg.UnitPrice, arg.RegularPrice, arg.Subtotal)
	return err
}

// GetOrderByID loads an order header.
func (q *Queries) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// ListOrdersByUser returns a user's orders, newest first.
func (q *Queries) ListOrdersByUser(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountOrdersByUser returns the number of orders a user has placed.
func (q *Queries) CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// ListOrderItems returns the lines for an order.
func (q *Queries) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemColumns+` FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
