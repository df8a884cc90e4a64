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

const orderColumns = `o.id, o.customer_id, c.name, o.event_date, o.return_date, o.location, o.status,
	o.total_amount, o.advance_amount, o.security_deposit, o.paid_amount, o.notes, o.created_at, o.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (*models.Order, error) {
	var (
		o                    models.Order
		eventDate, returnDay string
	)
	err := s.Scan(
		&o.ID, &o.CustomerID, &o.CustomerName, &eventDate, &returnDay, &o.Location, &o.Status,
		&o.TotalAmount, &o.AdvanceAmount, &o.SecurityDeposit, &o.PaidAmount, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if o.EventDate, err = time.Parse(models.DateLayout, eventDate); err != nil {
		return nil, fmt.Errorf("failed to parse event date %q: %w", eventDate, err)
	}
	if o.ReturnDate, err = time.Parse(models.DateLayout, returnDay); err != nil {
		return nil, fmt.Errorf("failed to parse return date %q: %w", returnDay, err)
	}
	return &o, nil
}

func (db *DB) loadOrderItems(ctx context.Context, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return map[int64][]models.OrderItem{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	query := fmt.Sprintf(`SELECT oi.id, oi.order_id, oi.item_id, i.name, oi.quantity, oi.unit_price
              FROM order_items oi JOIN items i ON i.id = oi.item_id
              WHERE oi.order_id IN (%s) ORDER BY oi.id`, placeholders)

	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[int64][]models.OrderItem)
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.ItemName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return byOrder, nil
}

func (db *DB) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN customers c ON c.id = o.customer_id WHERE o.id = ?`
	order, err := scanOrder(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := db.loadOrderItems(ctx, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

// ListOrders returns orders newest-first, optionally filtered by status.
func (db *DB) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN customers c ON c.id = o.customer_id`
	var args []any
	if status != "" {
		query += ` WHERE o.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY o.created_at DESC, o.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	var ids []int64
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	itemsByOrder, err := db.loadOrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}
	return orders, nil
}

// GetOrdersOverlapping returns stock-consuming orders (BOOKED or OUT)
// whose [event_date, return_date] window intersects [start, end],
// items included. CANCELLED and RETURNED orders never appear here.
func (db *DB) GetOrdersOverlapping(ctx context.Context, start, end time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `
              FROM orders o JOIN customers c ON c.id = o.customer_id
              WHERE o.status IN (?, ?) AND o.event_date <= ? AND o.return_date >= ?
              ORDER BY o.event_date, o.id`

	rows, err := db.QueryContext(ctx, query,
		models.OrderStatusBooked, models.OrderStatusOut,
		end.Format(models.DateLayout), start.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get overlapping orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	var ids []int64
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate overlapping orders: %w", err)
	}

	itemsByOrder, err := db.loadOrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}
	return orders, nil
}

// usageForWindow sums requested quantity per item across all
// stock-consuming orders overlapping [start, end]. Runs on the given
// querier so the commit path can reuse it inside its transaction.
func usageForWindow(ctx context.Context, q interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, start, end time.Time) (map[int64]int64, error) {
	query := `SELECT oi.item_id, SUM(oi.quantity)
              FROM order_items oi
              JOIN orders o ON o.id = oi.order_id
              WHERE o.status IN (?, ?) AND o.event_date <= ? AND o.return_date >= ?
              GROUP BY oi.item_id`

	rows, err := q.QueryContext(ctx, query,
		models.OrderStatusBooked, models.OrderStatusOut,
		end.Format(models.DateLayout), start.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to compute usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[int64]int64)
	for rows.Next() {
		var itemID, qty int64
		if err := rows.Scan(&itemID, &qty); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		usage[itemID] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage rows: %w", err)
	}
	return usage, nil
}

// GetUsageForWindow exposes the usage map outside a transaction.
func (db *DB) GetUsageForWindow(ctx context.Context, start, end time.Time) (map[int64]int64, error) {
	return usageForWindow(ctx, db.DB, start, end)
}

// CreateOrder validates stock and inserts the order and its items as a
// single transaction. The availability re-check runs inside the same
// transaction as the insert; sqlite serializes writers, so two
// concurrent commits for the same scarce item cannot both pass the
// check.
func (db *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ReturnDate.Before(order.EventDate) {
		return ErrInvalidDateRange
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	usage, err := usageForWindow(ctx, tx, order.EventDate, order.ReturnDate)
	if err != nil {
		return err
	}

	// Validate every line against the catalog snapshot and remaining
	// quantity. Retired items are treated as unknown for new orders.
	var total float64
	for i := range order.Items {
		line := &order.Items[i]

		var name string
		var totalQty int64
		var available bool
		err := tx.QueryRowContext(ctx,
			`SELECT name, total_qty, available FROM items WHERE id = ?`, line.ItemID,
		).Scan(&name, &totalQty, &available)
		if errors.Is(err, sql.ErrNoRows) {
			return &UnknownItemError{ItemID: line.ItemID}
		}
		if err != nil {
			return fmt.Errorf("failed to look up item %d: %w", line.ItemID, err)
		}
		if !available {
			return &UnknownItemError{ItemID: line.ItemID}
		}

		remaining := totalQty - usage[line.ItemID]
		if remaining < 0 {
			remaining = 0
		}
		if line.Quantity > remaining {
			return &StockError{
				ItemID:    line.ItemID,
				ItemName:  name,
				Requested: line.Quantity,
				Available: remaining,
			}
		}

		line.ItemName = name
		total += float64(line.Quantity) * line.UnitPrice
	}

	// Total is computed server-side; a client-supplied total is ignored.
	order.TotalAmount = total
	order.Status = models.OrderStatusBooked

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO orders (customer_id, event_date, return_date, location, status,
			total_amount, advance_amount, security_deposit, paid_amount, notes, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.CustomerID,
		order.EventDate.Format(models.DateLayout),
		order.ReturnDate.Format(models.DateLayout),
		order.Location,
		order.Status,
		order.TotalAmount,
		order.AdvanceAmount,
		order.SecurityDeposit,
		order.PaidAmount,
		order.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	for i := range order.Items {
		line := &order.Items[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, item_id, quantity, unit_price) VALUES (?, ?, ?, ?)`,
			orderID, line.ItemID, line.Quantity, line.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
		lineID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get order item id: %w", err)
		}
		line.ID = lineID
		line.OrderID = orderID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	order.ID = orderID
	order.CreatedAt = now
	order.UpdatedAt = now
	return nil
}

// UpdateOrderStatus applies a lifecycle transition. Items are immutable
// after creation, so this and UpdateOrderPayment are the only mutations.
func (db *DB) UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order status: %w", err)
	}

	if !models.ValidOrderTransition(current, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return db.GetOrder(ctx, id)
}

func (db *DB) UpdateOrderPayment(ctx context.Context, id int64, paidAmount float64) (*models.Order, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE orders SET paid_amount = ?, updated_at = ? WHERE id = ?`, paidAmount, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update order payment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return db.GetOrder(ctx, id)
}
