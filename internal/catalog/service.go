package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/primecart/backend-store/internal/common"
	"github.com/primecart/backend-store/internal/membership"
	"github.com/primecart/backend-store/internal/obs"
	"github.com/primecart/backend-store/internal/pricing"
	"github.com/primecart/backend-store/internal/store"
)

type queryProvider interface {
	ListProducts(ctx context.Context, arg store.ListProductsParams) ([]store.Product, error)
	CountProducts(ctx context.Context, category pgtype.Text, primeOnly bool) (int64, error)
	GetProductBySlug(ctx context.Context, slug string) (store.Product, error)
	GetProductByID(ctx context.Context, id pgtype.UUID) (store.Product, error)
	CreateProduct(ctx context.Context, arg store.CreateProductParams) (store.Product, error)
	UpdateProductPricing(ctx context.Context, arg store.UpdateProductPricingParams) (store.Product, error)
	DeleteProduct(ctx context.Context, id pgtype.UUID) error
}

// Service orchestrates catalog queries, per-viewer price resolution, and caching.
type Service struct {
	queries      queryProvider
	cache        *Cache
	validate     *validator.Validate
	now          func() time.Time
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	Now          func() time.Time
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for product listing.
type ListParams struct {
	Category  string
	PrimeOnly bool
	Page      int
	Limit     int
}

// ProductView is the viewer-resolved product payload.
type ProductView struct {
	ID            string         `json:"id"`
	Slug          string         `json:"slug"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Category      string         `json:"category,omitempty"`
	RegularPrice  pricing.Money  `json:"regularPrice"`
	UnitPrice     pricing.Money  `json:"unitPrice"`
	IsDiscounted  bool           `json:"isDiscounted"`
	StrikePrice   *pricing.Money `json:"strikePrice,omitempty"`
	PrimeEligible bool           `json:"primeEligible"`
	InStock       bool           `json:"inStock"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductView
	Total int64
	Page  int
	Limit int
}

// cachedRow is the viewer-independent portion of a product stored in Redis.
type cachedRow struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category,omitempty"`
	RegularPrice  int64  `json:"regularPrice"`
	PrimeEligible bool   `json:"primeEligible"`
	DiscountKind  string `json:"discountKind,omitempty"`
	DiscountValue int64  `json:"discountValue"`
	Stock         int32  `json:"stock"`
}

type cachedList struct {
	Rows  []cachedRow `json:"rows"`
	Total int64       `json:"total"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		validate:     validator.New(),
		now:          now,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Category = strings.TrimSpace(values.Get("category"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}

	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit
	return params, nil
}

// ListProducts returns a filtered, viewer-priced product list. The Redis
// cache stores raw rows for the default unfiltered page; resolved prices are
// recomputed per request so one member's discount never leaks to another
// viewer.
func (s *Service) ListProducts(ctx context.Context, params ListParams, viewer *membership.Record) (ProductListResult, error) {
	key, shouldUseCache := s.listCacheKey(params)
	if shouldUseCache {
		var cached cachedList
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			return ProductListResult{
				Items: s.resolveRows(cached.Rows, viewer),
				Total: cached.Total,
				Page:  params.Page,
				Limit: params.Limit,
			}, nil
		}
	}

	category := store.ToText(params.Category)
	total, err := s.queries.CountProducts(ctx, category, params.PrimeOnly)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("count products: %w", err)
	}
	offset := int32((params.Page - 1) * params.Limit)
	if offset < 0 {
		offset = 0
	}
	products, err := s.queries.ListProducts(ctx, store.ListProductsParams{
		Category:  category,
		PrimeOnly: params.PrimeOnly,
		Limit:     int32(params.Limit),
		Offset:    offset,
	})
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}

	rows := make([]cachedRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, toCachedRow(p))
	}
	if shouldUseCache {
		_ = s.cache.SetJSON(ctx, key, cachedList{Rows: rows, Total: total})
	}
	return ProductListResult{
		Items: s.resolveRows(rows, viewer),
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}, nil
}

// GetProduct returns a single viewer-priced product by slug.
func (s *Service) GetProduct(ctx context.Context, slug string, viewer *membership.Record) (ProductView, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductView{}, badRequest("slug", "slug is required", nil)
	}
	cacheKey := detailCacheKey(slug)
	var row cachedRow
	ok, err := s.cache.GetJSON(ctx, cacheKey, &row)
	if err != nil || !ok {
		product, err := s.queries.GetProductBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ProductView{}, common.NotFound("product not found", err)
			}
			return ProductView{}, fmt.Errorf("get product by slug: %w", err)
		}
		row = toCachedRow(product)
		_ = s.cache.SetJSON(ctx, cacheKey, row)
	}
	return s.resolveRow(row, viewer), nil
}

func (s *Service) resolveRows(rows []cachedRow, viewer *membership.Record) []ProductView {
	items := make([]ProductView, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.resolveRow(row, viewer))
	}
	return items
}

func (s *Service) resolveRow(row cachedRow, viewer *membership.Record) ProductView {
	cfg := pricing.Config{
		Eligible: row.PrimeEligible,
		Kind:     pricing.Kind(row.DiscountKind),
		Value:    row.DiscountValue,
	}
	resolved := pricing.Resolve(row.RegularPrice, cfg, viewer, s.now())
	if obs.PriceResolutionTotal != nil {
		outcome := "regular"
		if resolved.Discounted {
			outcome = "discounted"
		}
		obs.PriceResolutionTotal.WithLabelValues(outcome).Inc()
	}
	return ProductView{
		ID:            row.ID,
		Slug:          row.Slug,
		Name:          row.Name,
		Description:   row.Description,
		Category:      row.Category,
		RegularPrice:  row.RegularPrice,
		UnitPrice:     resolved.UnitPrice,
		IsDiscounted:  resolved.Discounted,
		StrikePrice:   resolved.StrikePrice,
		PrimeEligible: row.PrimeEligible,
		InStock:       row.Stock > 0,
	}
}

func toCachedRow(p store.Product) cachedRow {
	return cachedRow{
		ID:            store.UUIDString(p.ID),
		Slug:          p.Slug,
		Name:          p.Name,
		Description:   store.TextOrEmpty(p.Description),
		Category:      store.TextOrEmpty(p.Category),
		RegularPrice:  p.RegularPrice,
		PrimeEligible: p.PrimeEligible,
		DiscountKind:  store.TextOrEmpty(p.DiscountKind),
		DiscountValue: p.DiscountValue,
		Stock:         p.Stock,
	}
}

func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if params.Page != s.defaultPage || params.Limit != s.defaultLimit || params.Category != "" {
		return "", false
	}
	if params.PrimeOnly {
		return "catalog:products:list:prime", true
	}
	return "catalog:products:list:all", true
}

func detailCacheKey(slug string) string {
	return "catalog:products:detail:" + slug
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
