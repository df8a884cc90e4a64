package database

import (
	"context"
	"fmt"
	"time"

	"innkeep/internal/models"
)

// DailySummary aggregates one business day: rental orders whose window
// covers the date, kitchen tickets opened that day, hall bookings on
// the date and current room occupancy.
type DailySummary struct {
	Date          string  `json:"date"`
	RentalOrders  int64   `json:"rental_orders"`
	RentalRevenue float64 `json:"rental_revenue"`
	FoodOrders    int64   `json:"food_orders"`
	FoodRevenue   float64 `json:"food_revenue"`
	HallBookings  int64   `json:"hall_bookings"`
	HallRevenue   float64 `json:"hall_revenue"`
	OccupiedRooms int64   `json:"occupied_rooms"`
	TotalRooms    int64   `json:"total_rooms"`
}

func (db *DB) GetDailySummary(ctx context.Context, date time.Time) (*DailySummary, error) {
	day := date.Format(models.DateLayout)
	summary := &DailySummary{Date: day}

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders
         WHERE status IN (?, ?) AND event_date <= ? AND return_date >= ?`,
		models.OrderStatusBooked, models.OrderStatusOut, day, day,
	).Scan(&summary.RentalOrders, &summary.RentalRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize rentals: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total), 0) FROM food_orders
         WHERE status != ? AND date(created_at) = ?`,
		models.FoodStatusCancelled, day,
	).Scan(&summary.FoodOrders, &summary.FoodRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize food orders: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total), 0) FROM hall_bookings
         WHERE status != ? AND event_date = ?`,
		models.HallStatusCancelled, day,
	).Scan(&summary.HallBookings, &summary.HallRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize hall bookings: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stays WHERE status = ?`, models.StayStatusCheckedIn,
	).Scan(&summary.OccupiedRooms)
	if err != nil {
		return nil, fmt.Errorf("failed to count occupied rooms: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rooms WHERE is_active = 1`,
	).Scan(&summary.TotalRooms)
	if err != nil {
		return nil, fmt.Errorf("failed to count rooms: %w", err)
	}

	return summary, nil
}
