package models

import "time"

// Room is a homestay room. NightlyRate is the default rate; each stay
// snapshots its own rate at check-in.
type Room struct {
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	Type        string    `json:"type"`
	NightlyRate float64   `json:"nightly_rate"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Stay is a guest check-in record. A room has at most one open stay
// (Status == CHECKED_IN) at a time. CheckOut stays nil until checkout.
type Stay struct {
	ID          int64      `json:"id"`
	RoomID      int64      `json:"room_id"`
	RoomNumber  string     `json:"room_number,omitempty"`
	GuestName   string     `json:"guest_name"`
	GuestPhone  string     `json:"guest_phone"`
	IDProof     string     `json:"id_proof,omitempty"`
	CheckIn     time.Time  `json:"check_in"`
	CheckOut    *time.Time `json:"check_out,omitempty"`
	NightlyRate float64    `json:"nightly_rate"`
	Advance     float64    `json:"advance"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Nights returns the number of billable nights for the stay, floored
// at one so a same-day checkout still bills a night.
func (s *Stay) Nights(until time.Time) int64 {
	end := until
	if s.CheckOut != nil {
		end = *s.CheckOut
	}
	nights := int64(end.Sub(s.CheckIn).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return nights
}

// Bill is the computed invoice for a stay: room nights plus food orders
// charged to the stay, minus the advance already taken.
type Bill struct {
	Number      string      `json:"number"`
	StayID      int64       `json:"stay_id"`
	Nights      int64       `json:"nights"`
	NightlyRate float64     `json:"nightly_rate"`
	RoomCharge  float64     `json:"room_charge"`
	FoodCharge  float64     `json:"food_charge"`
	FoodOrders  []FoodOrder `json:"food_orders,omitempty"`
	Advance     float64     `json:"advance"`
	Total       float64     `json:"total"`
	Due         float64     `json:"due"`
	GeneratedAt time.Time   `json:"generated_at"`
}
