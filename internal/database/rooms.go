package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"innkeep/internal/models"
)

func (db *DB) CreateRoom(ctx context.Context, room *models.Room) error {
	query := `INSERT INTO rooms (number, type, nightly_rate, is_active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, room.Number, room.Type, room.NightlyRate, room.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	room.ID = id
	room.CreatedAt = now
	room.UpdatedAt = now
	return nil
}

func (db *DB) UpdateRoom(ctx context.Context, room *models.Room) error {
	query := `UPDATE rooms SET number = ?, type = ?, nightly_rate = ?, is_active = ?, updated_at = ? WHERE id = ?`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, room.Number, room.Type, room.NightlyRate, room.IsActive, now, room.ID)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	room.UpdatedAt = now
	return nil
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	query := `SELECT id, number, type, nightly_rate, is_active, created_at, updated_at FROM rooms WHERE id = ?`
	var r models.Room
	err := db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.Number, &r.Type, &r.NightlyRate, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &r, nil
}

func (db *DB) GetRooms(ctx context.Context) ([]models.Room, error) {
	query := `SELECT id, number, type, nightly_rate, is_active, created_at, updated_at FROM rooms ORDER BY number`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.ID, &r.Number, &r.Type, &r.NightlyRate, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

const stayColumns = `s.id, s.room_id, r.number, s.guest_name, s.guest_phone, s.id_proof,
	s.check_in, s.check_out, s.nightly_rate, s.advance, s.status, s.created_at, s.updated_at`

func scanStay(s rowScanner) (*models.Stay, error) {
	var st models.Stay
	var checkOut sql.NullTime
	err := s.Scan(
		&st.ID, &st.RoomID, &st.RoomNumber, &st.GuestName, &st.GuestPhone, &st.IDProof,
		&st.CheckIn, &checkOut, &st.NightlyRate, &st.Advance, &st.Status, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if checkOut.Valid {
		st.CheckOut = &checkOut.Time
	}
	return &st, nil
}

// CreateStay checks a guest in. The open-stay check and the insert run
// in one transaction so a room cannot end up with two open stays.
func (db *DB) CreateStay(ctx context.Context, stay *models.Stay) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var open int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stays WHERE room_id = ? AND status = ?`,
		stay.RoomID, models.StayStatusCheckedIn).Scan(&open)
	if err != nil {
		return fmt.Errorf("failed to check open stays: %w", err)
	}
	if open > 0 {
		return ErrRoomOccupied
	}

	now := time.Now()
	stay.Status = models.StayStatusCheckedIn
	result, err := tx.ExecContext(ctx,
		`INSERT INTO stays (room_id, guest_name, guest_phone, id_proof, check_in, nightly_rate, advance, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stay.RoomID, stay.GuestName, stay.GuestPhone, stay.IDProof,
		stay.CheckIn, stay.NightlyRate, stay.Advance, stay.Status, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert stay: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stay: %w", err)
	}

	stay.ID = id
	stay.CreatedAt = now
	stay.UpdatedAt = now
	return nil
}

func (db *DB) GetStay(ctx context.Context, id int64) (*models.Stay, error) {
	query := `SELECT ` + stayColumns + ` FROM stays s JOIN rooms r ON r.id = s.room_id WHERE s.id = ?`
	stay, err := scanStay(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stay: %w", err)
	}
	return stay, nil
}

// ListStays returns stays newest-first, optionally filtered by status.
func (db *DB) ListStays(ctx context.Context, status string) ([]models.Stay, error) {
	query := `SELECT ` + stayColumns + ` FROM stays s JOIN rooms r ON r.id = s.room_id`
	var args []any
	if status != "" {
		query += ` WHERE s.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY s.check_in DESC, s.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stays: %w", err)
	}
	defer rows.Close()

	var stays []models.Stay
	for rows.Next() {
		stay, err := scanStay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stay: %w", err)
		}
		stays = append(stays, *stay)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stays: %w", err)
	}
	return stays, nil
}

// CheckoutStay closes an open stay. Checking out twice is rejected.
func (db *DB) CheckoutStay(ctx context.Context, id int64, checkOut time.Time) (*models.Stay, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE stays SET check_out = ?, status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		checkOut, models.StayStatusCheckedOut, time.Now(), id, models.StayStatusCheckedIn)
	if err != nil {
		return nil, fmt.Errorf("failed to checkout stay: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetStay(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: stay %d is not open", ErrInvalidTransition, id)
	}
	return db.GetStay(ctx, id)
}
