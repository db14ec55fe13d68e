package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/primecart/backend-store/internal/common"
	"github.com/primecart/backend-store/internal/pricing"
	"github.com/primecart/backend-store/internal/store"
)

// ProductInput carries the full admin payload for creating a product.
type ProductInput struct {
	Slug          string `json:"slug" validate:"required,min=2,max=120"`
	Name          string `json:"name" validate:"required,min=2,max=200"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	RegularPrice  int64  `json:"regularPrice" validate:"gte=0"`
	PrimeEligible bool   `json:"primeEligible"`
	DiscountKind  string `json:"discountKind" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue int64  `json:"discountValue"`
	Stock         int32  `json:"stock" validate:"gte=0"`
}

// PricingInput carries the admin payload for updating price and discount fields.
type PricingInput struct {
	RegularPrice  int64  `json:"regularPrice" validate:"gte=0"`
	PrimeEligible bool   `json:"primeEligible"`
	DiscountKind  string `json:"discountKind" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue int64  `json:"discountValue"`
}

// AdminProduct is the raw product row returned to admin clients, including
// the derived discount fields.
type AdminProduct struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category,omitempty"`
	RegularPrice    int64     `json:"regularPrice"`
	PrimeEligible   bool      `json:"primeEligible"`
	DiscountKind    string    `json:"discountKind,omitempty"`
	DiscountValue   int64     `json:"discountValue"`
	DiscountedPrice int64     `json:"discountedPrice"`
	Savings         int64     `json:"savings"`
	Stock           int32     `json:"stock"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateProduct validates the payload and inserts the product with its
// derived discount fields. An invalid discount configuration rejects the
// whole write; nothing is persisted.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (AdminProduct, error) {
	cfg, quote, err := s.derivePricing(in.RegularPrice, in.PrimeEligible, in.DiscountKind, in.DiscountValue)
	if err != nil {
		return AdminProduct{}, err
	}
	if err := s.validate.Struct(in); err != nil {
		return AdminProduct{}, common.ValidationError("invalid product payload", err)
	}
	created, err := s.queries.CreateProduct(ctx, store.CreateProductParams{
		Slug:            in.Slug,
		Name:            in.Name,
		Description:     store.ToText(in.Description),
		Category:        store.ToText(in.Category),
		RegularPrice:    in.RegularPrice,
		PrimeEligible:   cfg.Eligible,
		DiscountKind:    discountKindText(cfg),
		DiscountValue:   cfg.Value,
		DiscountedPrice: quote.DiscountedPrice,
		Savings:         quote.Savings,
		Stock:           in.Stock,
	})
	if err != nil {
		return AdminProduct{}, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx, created.Slug)
	return toAdminProduct(created), nil
}

// UpdatePricing validates and atomically replaces a product's price and
// discount fields, recomputing the derived discount columns.
func (s *Service) UpdatePricing(ctx context.Context, productID string, in PricingInput) (AdminProduct, error) {
	cfg, quote, err := s.derivePricing(in.RegularPrice, in.PrimeEligible, in.DiscountKind, in.DiscountValue)
	if err != nil {
		return AdminProduct{}, err
	}
	if err := s.validate.Struct(in); err != nil {
		return AdminProduct{}, common.ValidationError("invalid pricing payload", err)
	}
	id, err := store.ToUUID(productID)
	if err != nil {
		return AdminProduct{}, badRequest("id", "invalid product id", err)
	}
	updated, err := s.queries.UpdateProductPricing(ctx, store.UpdateProductPricingParams{
		ID:              id,
		RegularPrice:    in.RegularPrice,
		PrimeEligible:   cfg.Eligible,
		DiscountKind:    discountKindText(cfg),
		DiscountValue:   cfg.Value,
		DiscountedPrice: quote.DiscountedPrice,
		Savings:         quote.Savings,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdminProduct{}, common.NotFound("product not found", err)
		}
		return AdminProduct{}, fmt.Errorf("update product pricing: %w", err)
	}
	s.invalidate(ctx, updated.Slug)
	return toAdminProduct(updated), nil
}

// DeleteProduct removes a product and invalidates its cache entries.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	id, err := store.ToUUID(productID)
	if err != nil {
		return badRequest("id", "invalid product id", err)
	}
	product, err := s.queries.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFound("product not found", err)
		}
		return fmt.Errorf("get product: %w", err)
	}
	if err := s.queries.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, product.Slug)
	return nil
}

// derivePricing validates the discount configuration and recomputes the
// derived quote. The quote for an ineligible product collapses to the
// regular price with zero savings.
func (s *Service) derivePricing(regular int64, eligible bool, kind string, value int64) (pricing.Config, pricing.Quote, error) {
	if regular < 0 {
		return pricing.Config{}, pricing.Quote{}, common.ValidationError("regularPrice must not be negative", nil)
	}
	cfg := pricing.Config{Eligible: eligible, Kind: pricing.Kind(kind), Value: value}
	if eligible {
		if kind == "" {
			return pricing.Config{}, pricing.Quote{}, common.ValidationError("discountKind is required for prime-eligible products", nil)
		}
		if err := cfg.Validate(); err != nil {
			return pricing.Config{}, pricing.Quote{}, common.ValidationError(err.Error(), err)
		}
	}
	return cfg, pricing.Compute(regular, cfg), nil
}

func (s *Service) invalidate(ctx context.Context, slug string) {
	_ = s.cache.Delete(ctx,
		"catalog:products:list:all",
		"catalog:products:list:prime",
		detailCacheKey(slug),
	)
}

func discountKindText(cfg pricing.Config) pgtype.Text {
	return store.ToText(string(cfg.Kind))
}

func toAdminProduct(p store.Product) AdminProduct {
	return AdminProduct{
		ID:              store.UUIDString(p.ID),
		Slug:            p.Slug,
		Name:            p.Name,
		Description:     store.TextOrEmpty(p.Description),
		Category:        store.TextOrEmpty(p.Category),
		RegularPrice:    p.RegularPrice,
		PrimeEligible:   p.PrimeEligible,
		DiscountKind:    store.TextOrEmpty(p.DiscountKind),
		DiscountValue:   p.DiscountValue,
		DiscountedPrice: p.DiscountedPrice,
		Savings:         p.Savings,
		Stock:           p.Stock,
		UpdatedAt:       store.TimeOrZero(p.UpdatedAt),
	}
}
