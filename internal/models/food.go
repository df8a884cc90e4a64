package models

import "time"

// MenuItem is a kitchen menu entry.
type MenuItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FoodOrder is a kitchen ticket. It is attached either to a table label
// or to an open stay (room service); StayID is nil for walk-ins.
type FoodOrder struct {
	ID        int64           `json:"id"`
	Table     string          `json:"table,omitempty"`
	StayID    *int64          `json:"stay_id,omitempty"`
	Status    string          `json:"status"`
	Total     float64         `json:"total"`
	Notes     string          `json:"notes,omitempty"`
	Items     []FoodOrderItem `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FoodOrderItem snapshots a menu item and its price at order time.
type FoodOrderItem struct {
	ID         int64   `json:"id"`
	OrderID    int64   `json:"order_id"`
	MenuItemID int64   `json:"menu_item_id"`
	Name       string  `json:"name,omitempty"`
	Quantity   int64   `json:"quantity"`
	Price      float64 `json:"price"`
}
