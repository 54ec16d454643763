package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_food/internal/domain"
	"github.com/fjod/go_food/internal/repository"
	"github.com/fjod/go_food/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderServiceMock struct {
	created   *domain.Order
	orders    []domain.Order
	err       error
	gotUserID string
	gotItems  []domain.OrderRequestItem
}

func (m *orderServiceMock) Create(_ context.Context, userID string, items []domain.OrderRequestItem) (*domain.Order, error) {
	m.gotUserID = userID
	m.gotItems = items
	if m.err != nil {
		return nil, m.err
	}
	return m.created, nil
}

func (m *orderServiceMock) List(_ context.Context, userID string) ([]domain.Order, error) {
	m.gotUserID = userID
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func newOrderRouter(svc OrderService) *chi.Mux {
	handler := NewOrderHandler(svc, 5*time.Second)
	r := chi.NewRouter()
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(AuthMiddleware)
		r.Post("/", handler.Create)
		r.Get("/", handler.List)
	})
	return r
}

func TestCreateOrder_Unauthorized(t *testing.T) {
	svc := &orderServiceMock{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/orders", strings.NewReader(`{"items":[{"food_id":1,"quantity":1}]}`))
	newOrderRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.gotUserID)
}

func TestCreateOrder_OK(t *testing.T) {
	svc := &orderServiceMock{
		created: &domain.Order{
			ID:          12,
			UserID:      "user-1",
			TotalAmount: decimal.RequireFromString("31.97"),
			Status:      domain.OrderStatusPending,
		},
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/orders", strings.NewReader(`{"items":[{"food_id":1,"quantity":2},{"food_id":2,"quantity":1}]}`))
	req.Header.Set("X-User-ID", "user-1")
	newOrderRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateOrderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(12), resp.OrderID)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("31.97")))

	assert.Equal(t, "user-1", svc.gotUserID)
	require.Len(t, svc.gotItems, 2)
	assert.Equal(t, domain.OrderRequestItem{MenuItemID: 1, Quantity: 2}, svc.gotItems[0])
}

func TestCreateOrder_InvalidJSON(t *testing.T) {
	svc := &orderServiceMock{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/orders", strings.NewReader(`{"items":`))
	req.Header.Set("X-User-ID", "user-1")
	newOrderRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	svc := &orderServiceMock{err: service.ErrEmptyOrder}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/orders", strings.NewReader(`{"items":[]}`))
	req.Header.Set("X-User-ID", "user-1")
	newOrderRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_UnknownItem(t *testing.T) {
	svc := &orderServiceMock{err: fmt.Errorf("%w: id 999", repository.ErrMenuItemNotFound)}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/orders", strings.NewReader(`{"items":[{"food_id":999,"quantity":1}]}`))
	req.Header.Set("X-User-ID", "user-1")
	newOrderRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "999")
}

func TestListOrders_OK(t *testing.T) {
	svc := &orderServiceMock{
		orders: []domain.Order{
			{ID: 1, UserID: "user-1", TotalAmount: decimal.RequireFromString("9.99"), Status: domain.OrderStatusPending, CreatedAt: time.Now()},
		},
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("X-User-ID", "user-1")
	newOrderRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var dtos []OrderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dtos))
	require.Len(t, dtos, 1)
	assert.Equal(t, "pending", dtos[0].Status)
	assert.Equal(t, "user-1", svc.gotUserID)
}

func TestListOrders_EmptyIsArray(t *testing.T) {
	svc := &orderServiceMock{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("X-User-ID", "user-2")
	newOrderRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
