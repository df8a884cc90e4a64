package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"innkeep/internal/models"
)

func (db *DB) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `INSERT INTO customers (name, phone, address, email, id_proof, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		customer.Name, customer.Phone, customer.Address, customer.Email, customer.IDProof, now, now)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	customer.ID = id
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return nil
}

func (db *DB) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	query := `SELECT id, name, phone, address, email, id_proof, created_at, updated_at
              FROM customers WHERE id = ?`
	var c models.Customer
	err := db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Phone, &c.Address, &c.Email, &c.IDProof, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

// SearchCustomers does a fuzzy lookup over name and phone. An empty
// query returns the most recent customers.
func (db *DB) SearchCustomers(ctx context.Context, q string, limit int) ([]models.Customer, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, name, phone, address, email, id_proof, created_at, updated_at FROM customers`
	var args []any
	if q != "" {
		query += ` WHERE name LIKE ? OR phone LIKE ?`
		pattern := "%" + q + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Email, &c.IDProof, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}
