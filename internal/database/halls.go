package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"innkeep/internal/models"
)

func (db *DB) CreateHall(ctx context.Context, hall *models.Hall) error {
	query := `INSERT INTO halls (name, capacity, daily_rate, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, hall.Name, hall.Capacity, hall.DailyRate, hall.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create hall: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	hall.ID = id
	hall.CreatedAt = now
	hall.UpdatedAt = now
	return nil
}

func (db *DB) GetHalls(ctx context.Context) ([]models.Hall, error) {
	query := `SELECT id, name, capacity, daily_rate, is_active, created_at, updated_at
              FROM halls WHERE is_active = 1 ORDER BY name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get halls: %w", err)
	}
	defer rows.Close()

	var halls []models.Hall
	for rows.Next() {
		var h models.Hall
		if err := rows.Scan(&h.ID, &h.Name, &h.Capacity, &h.DailyRate, &h.IsActive, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hall: %w", err)
		}
		halls = append(halls, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate halls: %w", err)
	}
	return halls, nil
}

// GetBookedHallIDs returns ids of halls that already carry a
// non-cancelled booking on the given date.
func (db *DB) GetBookedHallIDs(ctx context.Context, date time.Time) (map[int64]bool, error) {
	query := `SELECT hall_id FROM hall_bookings WHERE event_date = ? AND status != ?`
	rows, err := db.QueryContext(ctx, query, date.Format(models.DateLayout), models.HallStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked halls: %w", err)
	}
	defer rows.Close()

	booked := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan hall id: %w", err)
		}
		booked[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate booked halls: %w", err)
	}
	return booked, nil
}

const hallBookingColumns = `b.id, b.hall_id, h.name, b.customer_id, c.name, b.event_date,
	b.purpose, b.status, b.total, b.advance, b.created_at, b.updated_at`

func scanHallBooking(s rowScanner) (*models.HallBooking, error) {
	var b models.HallBooking
	var eventDate string
	err := s.Scan(
		&b.ID, &b.HallID, &b.HallName, &b.CustomerID, &b.CustomerName, &eventDate,
		&b.Purpose, &b.Status, &b.Total, &b.Advance, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if b.EventDate, err = time.Parse(models.DateLayout, eventDate); err != nil {
		return nil, fmt.Errorf("failed to parse event date %q: %w", eventDate, err)
	}
	return &b, nil
}

// CreateHallBooking inserts a booking after verifying, in the same
// transaction, that the hall has no other non-cancelled booking on the
// date.
func (db *DB) CreateHallBooking(ctx context.Context, booking *models.HallBooking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var hallName string
	var dailyRate float64
	err = tx.QueryRowContext(ctx,
		`SELECT name, daily_rate FROM halls WHERE id = ? AND is_active = 1`, booking.HallID,
	).Scan(&hallName, &dailyRate)
	if errors.Is(err, sql.ErrNoRows) {
		return &UnknownItemError{ItemID: booking.HallID}
	}
	if err != nil {
		return fmt.Errorf("failed to look up hall: %w", err)
	}

	var conflicts int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hall_bookings WHERE hall_id = ? AND event_date = ? AND status != ?`,
		booking.HallID, booking.EventDate.Format(models.DateLayout), models.HallStatusCancelled).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check hall conflicts: %w", err)
	}
	if conflicts > 0 {
		return ErrHallUnavailable
	}

	if booking.Total == 0 {
		booking.Total = dailyRate
	}
	booking.Status = models.HallStatusBooked
	booking.HallName = hallName

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO hall_bookings (hall_id, customer_id, event_date, purpose, status, total, advance, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.HallID, booking.CustomerID, booking.EventDate.Format(models.DateLayout),
		booking.Purpose, booking.Status, booking.Total, booking.Advance, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert hall booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hall booking: %w", err)
	}

	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetHallBooking(ctx context.Context, id int64) (*models.HallBooking, error) {
	query := `SELECT ` + hallBookingColumns + `
              FROM hall_bookings b JOIN halls h ON h.id = b.hall_id JOIN customers c ON c.id = b.customer_id
              WHERE b.id = ?`
	booking, err := scanHallBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hall booking: %w", err)
	}
	return booking, nil
}

func (db *DB) ListHallBookings(ctx context.Context, date *time.Time) ([]models.HallBooking, error) {
	query := `SELECT ` + hallBookingColumns + `
              FROM hall_bookings b JOIN halls h ON h.id = b.hall_id JOIN customers c ON c.id = b.customer_id`
	var args []any
	if date != nil {
		query += ` WHERE b.event_date = ?`
		args = append(args, date.Format(models.DateLayout))
	}
	query += ` ORDER BY b.event_date DESC, b.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list hall bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.HallBooking
	for rows.Next() {
		booking, err := scanHallBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hall booking: %w", err)
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hall bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) UpdateHallBookingStatus(ctx context.Context, id int64, status string) (*models.HallBooking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM hall_bookings WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hall booking status: %w", err)
	}

	if current != models.HallStatusBooked ||
		(status != models.HallStatusCompleted && status != models.HallStatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE hall_bookings SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id); err != nil {
		return nil, fmt.Errorf("failed to update hall booking status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit hall status update: %w", err)
	}

	return db.GetHallBooking(ctx, id)
}
