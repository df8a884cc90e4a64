package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"innkeep/internal/models"
)

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	query := `INSERT INTO items (name, category, unit_price, total_qty, available, sort_order, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		item.Name,
		item.Category,
		item.UnitPrice,
		item.TotalQty,
		item.Available,
		item.SortOrder,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now

	return nil
}

func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	query := `UPDATE items SET name = ?, category = ?, unit_price = ?, total_qty = ?, available = ?, sort_order = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		item.Name, item.Category, item.UnitPrice, item.TotalQty, item.Available, item.SortOrder, now, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	query := `SELECT id, name, category, unit_price, total_qty, available, sort_order, created_at, updated_at
              FROM items WHERE id = ?`
	var item models.Item
	err := db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Category, &item.UnitPrice, &item.TotalQty,
		&item.Available, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// GetItems returns the full catalog, retired items included, in display
// order.
func (db *DB) GetItems(ctx context.Context) ([]models.Item, error) {
	query := `SELECT id, name, category, unit_price, total_qty, available, sort_order, created_at, updated_at
              FROM items ORDER BY sort_order, id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Category, &item.UnitPrice, &item.TotalQty,
			&item.Available, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// GetAvailableItems returns only items still offered for rent.
func (db *DB) GetAvailableItems(ctx context.Context) ([]models.Item, error) {
	items, err := db.GetItems(ctx)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, item := range items {
		if item.Available {
			out = append(out, item)
		}
	}
	return out, nil
}
