package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a row from the menu_items table. Image holds the stored asset
// handle (bare filename under the upload root), empty when no image exists.
type MenuItem struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	Category    string
	Image       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
