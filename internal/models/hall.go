package models

import "time"

// Hall is a party hall available for whole-day bookings.
type Hall struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Capacity  int64     `json:"capacity"`
	DailyRate float64   `json:"daily_rate"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HallBooking reserves a hall for a single event date. At most one
// non-cancelled booking may exist per hall per date.
type HallBooking struct {
	ID           int64     `json:"id"`
	HallID       int64     `json:"hall_id"`
	HallName     string    `json:"hall_name,omitempty"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	EventDate    time.Time `json:"event_date"`
	Purpose      string    `json:"purpose,omitempty"`
	Status       string    `json:"status"`
	Total        float64   `json:"total"`
	Advance      float64   `json:"advance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
