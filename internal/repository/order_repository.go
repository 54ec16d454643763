package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/fjod/go_food/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateOrder converts a cart into a persisted order inside a single
// transaction. Prices are re-read from menu_items within the same
// transaction, never taken from the caller or any cache, so a stale price
// can't under- or over-charge. Either the order row and all its lines commit
// together or nothing is written.
func (r *Repository) CreateOrder(ctx context.Context, userID string, items []domain.OrderRequestItem) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order transaction: %w", err)
	}
	defer func() {
		if e2 := tx.Rollback(); e2 != nil && !errors.Is(e2, sql.ErrTxDone) {
			log.Printf("order transaction rollback failed: %v", e2)
		}
	}()

	total := decimal.Zero
	lines := make([]domain.OrderLine, 0, len(items))
	for _, it := range items {
		var price decimal.Decimal
		err := tx.QueryRowContext(ctx,
			`SELECT price FROM menu_items WHERE id = $1`, it.MenuItemID,
		).Scan(&price)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrMenuItemNotFound, it.MenuItemID)
		}
		if err != nil {
			return nil, fmt.Errorf("query price for item %d: %w", it.MenuItemID, err)
		}

		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		lines = append(lines, domain.OrderLine{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			UnitPrice:  price,
		})
	}

	order := &domain.Order{
		UserID:      userID,
		TotalAmount: total,
		Status:      domain.OrderStatusPending,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total_amount, status, created_at)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING id, created_at`,
		order.UserID, order.TotalAmount, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, line := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price)
			 VALUES ($1, $2, $3, $4)`,
			order.ID, line.MenuItemID, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order line for item %d: %w", line.MenuItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order transaction: %w", err)
	}

	return order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	query := `SELECT id, user_id, total_amount, status, created_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.TotalAmount,
			&order.Status,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

// ListOrderLines returns the persisted lines of one order.
func (r *Repository) ListOrderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	query := `SELECT id, order_id, menu_item_id, quantity, unit_price
	          FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.MenuItemID,
			&line.Quantity,
			&line.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("scan order line row: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}
