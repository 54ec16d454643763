package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path"

	"github.com/fjod/go_food/internal/domain"
	"github.com/lib/pq"
)

func (r *Repository) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	query := `SELECT id, name, price, category, COALESCE(image, ''), COALESCE(description, ''), created_at, updated_at
	          FROM menu_items ORDER BY category, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Price,
			&item.Category,
			&item.Image,
			&item.Description,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan menu item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func (r *Repository) GetMenuItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	query := `SELECT id, name, price, category, COALESCE(image, ''), COALESCE(description, ''), created_at, updated_at
	          FROM menu_items WHERE id = $1`

	var item domain.MenuItem
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Price,
		&item.Category,
		&item.Image,
		&item.Description,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrMenuItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query menu item by id: %w", err)
	}

	return &item, nil
}

func (r *Repository) CreateMenuItem(ctx context.Context, item *domain.MenuItem) error {
	query := `INSERT INTO menu_items (name, price, category, image, description, created_at, updated_at)
	          VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NOW(), NOW())
	          RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		item.Name,
		item.Price,
		item.Category,
		item.Image,
		item.Description,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

// UpdateMenuItem rewrites the row under a row lock so concurrent updates of
// the same item serialize instead of overwriting each other. An empty
// item.Image keeps the handle currently stored; a non-empty one replaces it.
// The handle stored before the update is returned so the caller can reclaim
// a superseded file.
func (r *Repository) UpdateMenuItem(ctx context.Context, item *domain.MenuItem) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin update transaction: %w", err)
	}
	defer func() {
		if e2 := tx.Rollback(); e2 != nil && !errors.Is(e2, sql.ErrTxDone) {
			log.Printf("menu update transaction rollback failed: %v", e2)
		}
	}()

	var prev string
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(image, '') FROM menu_items WHERE id = $1 FOR UPDATE`,
		item.ID,
	).Scan(&prev)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: id %d", ErrMenuItemNotFound, item.ID)
	}
	if err != nil {
		return "", fmt.Errorf("lock menu item row: %w", err)
	}

	if item.Image == "" {
		item.Image = prev
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE menu_items
		 SET name = $1, price = $2, category = $3, image = NULLIF($4, ''), description = NULLIF($5, ''), updated_at = NOW()
		 WHERE id = $6
		 RETURNING created_at, updated_at`,
		item.Name,
		item.Price,
		item.Category,
		item.Image,
		item.Description,
		item.ID,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("update menu item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit update transaction: %w", err)
	}
	return prev, nil
}

func (r *Repository) DeleteMenuItem(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		// 23503 = foreign_key_violation: an order line still references the row
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%w: id %d", ErrMenuItemInUse, id)
		}
		return fmt.Errorf("delete menu item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete menu item rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrMenuItemNotFound, id)
	}
	return nil
}

// ListImageHandles returns every asset handle currently referenced by a menu
// item. Handles are reduced to their base name so the reconciler compares
// like with like regardless of how the path was stored.
func (r *Repository) ListImageHandles(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT image FROM menu_items WHERE image IS NOT NULL AND image <> ''`)
	if err != nil {
		return nil, fmt.Errorf("query image handles: %w", err)
	}
	defer rows.Close()

	var handles []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan image handle: %w", err)
		}
		handles = append(handles, path.Base(h))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return handles, nil
}
