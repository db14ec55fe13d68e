package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Product is a catalog row including its precomputed discount fields.
type Product struct {
	ID              pgtype.UUID
	Slug            string
	Name            string
	Description     pgtype.Text
	Category        pgtype.Text
	RegularPrice    int64
	PrimeEligible   bool
	DiscountKind    pgtype.Text
	DiscountValue   int64
	DiscountedPrice int64
	Savings         int64
	Stock           int32
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

const productColumns = `id, slug, name, description, category, regular_price, prime_eligible,
	discount_kind, discount_value, discounted_price, savings, stock, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Slug, &p.Name, &p.Description, &p.Category,
		&p.RegularPrice, &p.PrimeEligible, &p.DiscountKind, &p.DiscountValue,
		&p.DiscountedPrice, &p.Savings, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// ListProductsParams filters and paginates the catalog listing.
type ListProductsParams struct {
	Category  pgtype.Text
	PrimeOnly bool
	Limit     int32
	Offset    int32
}

// ListProducts returns a page of products, newest first.
func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1::text IS NULL OR category = $1)
		  AND (NOT $2::bool OR prime_eligible)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`,
		arg.Category, arg.PrimeOnly, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountProducts returns the total matching ListProducts filters.
func (q *Queries) CountProducts(ctx context.Context, category pgtype.Text, primeOnly bool) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM products
		WHERE ($1::text IS NULL OR category = $1)
		  AND (NOT $2::bool OR prime_eligible)`,
		category, primeOnly).Scan(&n)
	return n, err
}

// GetProductByID loads a single product.
func (q *Queries) GetProductByID(ctx context.Context, id pgtype.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// GetProductBySlug loads a single product by its slug.
func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
}

// CreateProductParams carries all product fields for insertion.
type CreateProductParams struct {
	Slug            string
	Name            string
	Description     pgtype.Text
	Category        pgtype.Text
	RegularPrice    int64
	PrimeEligible   bool
	DiscountKind    pgtype.Text
	DiscountValue   int64
	DiscountedPrice int64
	Savings         int64
	Stock           int32
}

// CreateProduct inserts a product with its precomputed discount fields.
func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, `
		INSERT INTO products (slug, name, description, category, regular_price, prime_eligible,
			discount_kind, discount_value, discounted_price, savings, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+productColumns,
		arg.Slug, arg.Name, arg.Description, arg.Category, arg.RegularPrice, arg.PrimeEligible,
		arg.DiscountKind, arg.DiscountValue, arg.DiscountedPrice, arg.Savings, arg.Stock))
}

// UpdateProductPricingParams carries the admin-updatable price and discount fields.
type UpdateProductPricingParams struct {
	ID              pgtype.UUID
	RegularPrice    int64
	PrimeEligible   bool
	DiscountKind    pgtype.Text
	DiscountValue   int64
	DiscountedPrice int64
	Savings         int64
}

// UpdateProductPricing atomically replaces price and discount fields for a product.
func (q *Queries) UpdateProductPricing(ctx context.Context, arg UpdateProductPricingParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, `
		UPDATE products
		SET regular_price = $2,
		    prime_eligible = $3,
		    discount_kind = $4,
		    discount_value = $5,
		    discounted_price = $6,
		    savings = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID, arg.RegularPrice, arg.PrimeEligible, arg.DiscountKind, arg.DiscountValue,
		arg.DiscountedPrice, arg.Savings))
}

// UpdateProductStock adjusts available stock.
func (q *Queries) UpdateProductStock(ctx context.Context, id pgtype.UUID, stock int32) error {
	_, err := q.db.Exec(ctx, `UPDATE products SET stock = $2, updated_at = now() WHERE id = $1`, id, stock)
	return err
}

// DeleteProduct removes a product from the catalog.
func (q *Queries) DeleteProduct(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}
