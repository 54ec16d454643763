package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_food/internal/domain"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	Create(ctx context.Context, userID string, items []domain.OrderRequestItem) (*domain.Order, error)
	List(ctx context.Context, userID string) ([]domain.Order, error)
}

type OrderHandler struct {
	svc     OrderService
	timeout time.Duration
}

func NewOrderHandler(svc OrderService, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		svc:     svc,
		timeout: timeout,
	}
}

type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items"`
}

type CreateOrderItem struct {
	FoodID   int64 `json:"food_id"`
	Quantity int   `json:"quantity"`
}

type CreateOrderResponse struct {
	OrderID int64           `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

type OrderResponse struct {
	ID          int64           `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
}

// POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]domain.OrderRequestItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderRequestItem{
			MenuItemID: it.FoodID,
			Quantity:   it.Quantity,
		})
	}

	order, err := h.svc.Create(ctx, userID, items)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateOrderResponse{
		OrderID: order.ID,
		Total:   order.TotalAmount,
	})
}

// GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.svc.List(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, OrderResponse{
			ID:          o.ID,
			TotalAmount: o.TotalAmount,
			Status:      string(o.Status),
			CreatedAt:   o.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(w, http.StatusOK, dtos)
}
