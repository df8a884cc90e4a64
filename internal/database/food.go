package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"innkeep/internal/models"
)

func (db *DB) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	query := `INSERT INTO menu_items (name, category, price, available, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, item.Name, item.Category, item.Price, item.Available, now, now)
	if err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
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

func (db *DB) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	query := `UPDATE menu_items SET name = ?, category = ?, price = ?, available = ?, updated_at = ? WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, item.Name, item.Category, item.Price, item.Available, now, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
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

func (db *DB) GetMenu(ctx context.Context) ([]models.MenuItem, error) {
	query := `SELECT id, name, category, price, available, created_at, updated_at
              FROM menu_items ORDER BY category, name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Price, &item.Available, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menu items: %w", err)
	}
	return items, nil
}

const foodOrderColumns = `id, table_label, stay_id, status, total, notes, created_at, updated_at`

func scanFoodOrder(s rowScanner) (*models.FoodOrder, error) {
	var o models.FoodOrder
	var stayID sql.NullInt64
	err := s.Scan(&o.ID, &o.Table, &stayID, &o.Status, &o.Total, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if stayID.Valid {
		o.StayID = &stayID.Int64
	}
	return &o, nil
}

func (db *DB) loadFoodOrderItems(ctx context.Context, orderIDs []int64) (map[int64][]models.FoodOrderItem, error) {
	if len(orderIDs) == 0 {
		return map[int64][]models.FoodOrderItem{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	query := fmt.Sprintf(`SELECT fi.id, fi.order_id, fi.menu_item_id, m.name, fi.quantity, fi.price
              FROM food_order_items fi JOIN menu_items m ON m.id = fi.menu_item_id
              WHERE fi.order_id IN (%s) ORDER BY fi.id`, placeholders)

	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load food order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[int64][]models.FoodOrderItem)
	for rows.Next() {
		var it models.FoodOrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("failed to scan food order item: %w", err)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate food order items: %w", err)
	}
	return byOrder, nil
}

// CreateFoodOrder inserts a kitchen ticket and its lines atomically,
// snapshotting menu prices and computing the total server-side.
func (db *DB) CreateFoodOrder(ctx context.Context, order *models.FoodOrder) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var total float64
	for i := range order.Items {
		line := &order.Items[i]

		var name string
		var price float64
		var available bool
		err := tx.QueryRowContext(ctx,
			`SELECT name, price, available FROM menu_items WHERE id = ?`, line.MenuItemID,
		).Scan(&name, &price, &available)
		if errors.Is(err, sql.ErrNoRows) {
			return &UnknownItemError{ItemID: line.MenuItemID}
		}
		if err != nil {
			return fmt.Errorf("failed to look up menu item %d: %w", line.MenuItemID, err)
		}
		if !available {
			return &UnknownItemError{ItemID: line.MenuItemID}
		}

		line.Name = name
		line.Price = price
		total += float64(line.Quantity) * price
	}

	order.Status = models.FoodStatusPlaced
	order.Total = total

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO food_orders (table_label, stay_id, status, total, notes, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.Table, order.StayID, order.Status, order.Total, order.Notes, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert food order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	for i := range order.Items {
		line := &order.Items[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO food_order_items (order_id, menu_item_id, quantity, price) VALUES (?, ?, ?, ?)`,
			orderID, line.MenuItemID, line.Quantity, line.Price)
		if err != nil {
			return fmt.Errorf("failed to insert food order item: %w", err)
		}
		lineID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get food order item id: %w", err)
		}
		line.ID = lineID
		line.OrderID = orderID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit food order: %w", err)
	}

	order.ID = orderID
	order.CreatedAt = now
	order.UpdatedAt = now
	return nil
}

func (db *DB) GetFoodOrder(ctx context.Context, id int64) (*models.FoodOrder, error) {
	query := `SELECT ` + foodOrderColumns + ` FROM food_orders WHERE id = ?`
	order, err := scanFoodOrder(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get food order: %w", err)
	}

	items, err := db.loadFoodOrderItems(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

// ListFoodOrders returns tickets oldest-first so the kitchen board
// shows the longest-waiting order on top. Status filter optional.
func (db *DB) ListFoodOrders(ctx context.Context, status string) ([]models.FoodOrder, error) {
	query := `SELECT ` + foodOrderColumns + ` FROM food_orders`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list food orders: %w", err)
	}
	defer rows.Close()

	var orders []models.FoodOrder
	var ids []int64
	for rows.Next() {
		order, err := scanFoodOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food order: %w", err)
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate food orders: %w", err)
	}

	itemsByOrder, err := db.loadFoodOrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}
	return orders, nil
}

// GetFoodOrdersForStay returns non-cancelled tickets charged to a stay,
// for billing.
func (db *DB) GetFoodOrdersForStay(ctx context.Context, stayID int64) ([]models.FoodOrder, error) {
	query := `SELECT ` + foodOrderColumns + ` FROM food_orders WHERE stay_id = ? AND status != ? ORDER BY created_at, id`
	rows, err := db.QueryContext(ctx, query, stayID, models.FoodStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to get food orders for stay: %w", err)
	}
	defer rows.Close()

	var orders []models.FoodOrder
	var ids []int64
	for rows.Next() {
		order, err := scanFoodOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food order: %w", err)
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate food orders: %w", err)
	}

	itemsByOrder, err := db.loadFoodOrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}
	return orders, nil
}

func (db *DB) UpdateFoodOrderStatus(ctx context.Context, id int64, status string) (*models.FoodOrder, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM food_orders WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read food order status: %w", err)
	}

	if !models.ValidFoodTransition(current, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE food_orders SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id); err != nil {
		return nil, fmt.Errorf("failed to update food order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit food status update: %w", err)
	}

	return db.GetFoodOrder(ctx, id)
}
