package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
)

type Order struct {
	ID          int64
	UserID      string
	TotalAmount decimal.Decimal
	Status      OrderStatus
	CreatedAt   time.Time
}

// OrderLine captures the unit price at order time. It is deliberately not
// kept in sync with the menu item's current price: historical orders must
// never be repriced.
type OrderLine struct {
	ID         int64
	OrderID    int64
	MenuItemID int64
	Quantity   int
	UnitPrice  decimal.Decimal
}

// OrderRequestItem is one entry of an incoming cart.
type OrderRequestItem struct {
	MenuItemID int64
	Quantity   int
}
