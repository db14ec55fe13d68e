package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Cart is an open shopping cart for a user.
type Cart struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	Status    string
	ExpiresAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// CartItem is a line in a cart carrying the price snapshot taken at add time.
type CartItem struct {
	ID           pgtype.UUID
	CartID       pgtype.UUID
	ProductID    pgtype.UUID
	Name         string
	Slug         string
	Qty          int32
	UnitPrice    int64
	RegularPrice int64
	Subtotal     int64
}

const cartColumns = `id, user_id, status, expires_at, created_at, updated_at`

const cartItemColumns = `id, cart_id, product_id, name, slug, qty, unit_price, regular_price, subtotal`

func scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.UserID, &c.Status, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanCartItem(row pgx.Row) (CartItem, error) {
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Name, &it.Slug,
		&it.Qty, &it.UnitPrice, &it.RegularPrice, &it.Subtotal)
	return it, err
}

// GetActiveCartByUser loads the open cart for a user.
func (q *Queries) GetActiveCartByUser(ctx context.Context, userID pgtype.UUID) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, `
		SELECT `+cartColumns+` FROM carts
		WHERE user_id = $1 AND status = 'open'
		ORDER BY created_at DESC
		LIMIT 1`, userID))
}

// GetCartByID loads a cart by identifier.
func (q *Queries) GetCartByID(ctx context.Context, id pgtype.UUID) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, `
		SELECT `+cartColumns+` FROM carts WHERE id = $1`, id))
}

// CreateCart opens a cart for the given user.
func (q *Queries) CreateCart(ctx context.Context, userID pgtype.UUID, expiresAt pgtype.Timestamptz) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, `
		INSERT INTO carts (user_id, status, expires_at)
		VALUES ($1, 'open', $2)
		RETURNING `+cartColumns, userID, expiresAt))
}

// TouchCart extends a cart's expiry window.
func (q *Queries) TouchCart(ctx context.Context, id pgtype.UUID, expiresAt pgtype.Timestamptz) error {
	_, err := q.db.Exec(ctx, `
		UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1`, id, expiresAt)
	return err
}

// MarkCartConverted closes a cart after a successful checkout.
func (q *Queries) MarkCartConverted(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE carts SET status = 'converted', updated_at = now() WHERE id = $1`, id)
	return err
}

// FindCartItemByProduct locates an existing line for a product within a cart.
func (q *Queries) FindCartItemByProduct(ctx context.Context, cartID, productID pgtype.UUID) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE cart_id = $1 AND product_id = $2`, cartID, productID))
}

// GetCartItemByID loads a cart item.
func (q *Queries) GetCartItemByID(ctx context.Context, id pgtype.UUID) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items WHERE id = $1`, id))
}

// ListCartItems returns all lines in a cart.
func (q *Queries) ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE cart_id = $1
		ORDER BY id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CartItem
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CreateCartItemParams carries a new cart line with its price snapshot.
type CreateCartItemParams struct {
	CartID       pgtype.UUID
	ProductID    pgtype.UUID
	Name         string
	Slug         string
	Qty          int32
	UnitPrice    int64
	RegularPrice int64
	Subtotal     int64
}

// CreateCartItem inserts a cart line.
func (q *Queries) CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, name, slug, qty, unit_price, regular_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+cartItemColumns,
		arg.CartID, arg.ProductID, arg.Name, arg.Slug, arg.Qty,
		arg.UnitPrice, arg.RegularPrice, arg.Subtotal))
}

// UpdateCartItemQty replaces a line's quantity, keeping the stored unit price snapshot.
func (q *Queries) UpdateCartItemQty(ctx context.Context, id pgtype.UUID, qty int32, subtotal int64) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, `
		UPDATE cart_items SET qty = $2, subtotal = $3
		WHERE id = $1
		RETURNING `+cartItemColumns, id, qty, subtotal))
}

// DeleteCartItem removes a line from a cart.
func (q *Queries) DeleteCartItem(ctx context.Context, id, cartID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, id, cartID)
	return err
}
