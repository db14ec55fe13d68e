package order

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/primecart/backend-store/internal/common"
	"github.com/primecart/backend-store/internal/store"
)

// Querier is the subset of store queries the order handlers need.
type Querier interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (store.Order, error)
	ListOrdersByUser(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]store.Order, error)
	CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]store.OrderItem, error)
}

// Handler serves the authenticated user's order history.
type Handler struct {
	Q Querier
}

// Summary is the order header returned in list responses.
type Summary struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Currency  string    `json:"currency"`
	Subtotal  int64     `json:"subtotal"`
	Savings   int64     `json:"savings"`
	Tax       int64     `json:"tax"`
	Shipping  int64     `json:"shipping"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

// ItemView is a frozen order line.
type ItemView struct {
	ID           string `json:"id"`
	ProductID    string `json:"productId"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Qty          int32  `json:"qty"`
	UnitPrice    int64  `json:"unitPrice"`
	RegularPrice int64  `json:"regularPrice"`
	Subtotal     int64  `json:"subtotal"`
}

// Detail is an order with its lines.
type Detail struct {
	Summary
	Items []ItemView `json:"items"`
}

func toSummary(o store.Order) Summary {
	return Summary{
		ID:        store.UUIDString(o.ID),
		Status:    o.Status,
		Currency:  o.Currency,
		Subtotal:  o.Subtotal,
		Savings:   o.Savings,
		Tax:       o.Tax,
		Shipping:  o.Shipping,
		Total:     o.Total,
		CreatedAt: store.TimeOrZero(o.CreatedAt),
	}
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	uid, err := store.ToUUID(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	total, err := h.Q.CountOrdersByUser(r.Context(), uid)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Q.ListOrdersByUser(r.Context(), uid, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	out := make([]Summary, 0, len(orders))
	for _, o := range orders {
		out = append(out, toSummary(o))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/orders/{orderId}. Orders belonging to other users
// read as not found.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	uid, err := store.ToUUID(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	oid, err := store.ToUUID(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	ord, err := h.Q.GetOrderByID(r.Context(), oid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	if !store.UUIDEqual(ord.UserID, uid) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	items, err := h.Q.ListOrderItems(r.Context(), ord.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	detail := Detail{Summary: toSummary(ord), Items: make([]ItemView, 0, len(items))}
	for _, it := range items {
		detail.Items = append(detail.Items, ItemView{
			ID:           store.UUIDString(it.ID),
			ProductID:    store.UUIDString(it.ProductID),
			Name:         it.Name,
			Slug:         it.Slug,
			Qty:          it.Qty,
			UnitPrice:    it.UnitPrice,
			RegularPrice: it.RegularPrice,
			Subtotal:     it.Subtotal,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}
