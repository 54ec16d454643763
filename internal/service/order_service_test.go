package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_food/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_EmptyCartRejected(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewOrderService(repo)

	_, err := svc.Create(context.Background(), "user-1", nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Equal(t, 0, repo.createCalls(), "nothing may be persisted for an empty cart")
}

func TestCreateOrder_NonPositiveQuantityRejected(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewOrderService(repo)

	for _, qty := range []int{0, -1} {
		_, err := svc.Create(context.Background(), "user-1", []domain.OrderRequestItem{
			{MenuItemID: 1, Quantity: 2},
			{MenuItemID: 2, Quantity: qty},
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Equal(t, 0, repo.createCalls())
}

func TestCreateOrder_InvalidItemIDRejected(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := NewOrderService(repo)

	_, err := svc.Create(context.Background(), "user-1", []domain.OrderRequestItem{
		{MenuItemID: 0, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, repo.createCalls())
}

func TestCreateOrder_Success(t *testing.T) {
	total := decimal.RequireFromString("31.97")
	repo := &mockOrderRepo{
		created: &domain.Order{
			ID:          7,
			UserID:      "user-1",
			TotalAmount: total,
			Status:      domain.OrderStatusPending,
		},
	}
	svc := NewOrderService(repo)

	order, err := svc.Create(context.Background(), "user-1", []domain.OrderRequestItem{
		{MenuItemID: 1, Quantity: 2},
		{MenuItemID: 2, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
	assert.True(t, order.TotalAmount.Equal(total))
	assert.Equal(t, 1, repo.createCalls())
}

func TestCreateOrder_RepoErrorPropagates(t *testing.T) {
	wantErr := errors.New("menu item not found: id 999")
	repo := &mockOrderRepo{err: wantErr}
	svc := NewOrderService(repo)

	_, err := svc.Create(context.Background(), "user-1", []domain.OrderRequestItem{
		{MenuItemID: 999, Quantity: 1},
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestListOrders_OnlyOwnOrders(t *testing.T) {
	repo := &mockOrderRepo{
		orders: []domain.Order{
			{ID: 1, UserID: "user-1"},
			{ID: 2, UserID: "user-2"},
			{ID: 3, UserID: "user-1"},
		},
	}
	svc := NewOrderService(repo)

	orders, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "user-1", o.UserID)
	}
}
