package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_food/internal/domain"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, userID string, items []domain.OrderRequestItem) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]domain.Order, error)
}

type OrderService struct {
	repo OrderRepository
}

func NewOrderService(repo OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

// Create validates the cart and hands it to the repository, which prices and
// persists it atomically. Non-positive quantities are rejected outright
// rather than defaulted.
func (s *OrderService) Create(ctx context.Context, userID string, items []domain.OrderRequestItem) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, it := range items {
		if it.MenuItemID <= 0 {
			return nil, fmt.Errorf("%w: item id must be positive", ErrInvalidInput)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d", ErrInvalidQuantity, it.MenuItemID)
		}
	}

	return s.repo.CreateOrder(ctx, userID, items)
}

func (s *OrderService) List(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListOrdersByUserID(ctx, userID)
}
