package models

import "time"

// Item is a finite-quantity rental catalog entry (chairs, canopies,
// sound systems and the like). An item with Available=false is retired:
// it is excluded from availability results rather than reported as
// zero-stock.
type Item struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Category  string    `json:"category" yaml:"category"`
	UnitPrice float64   `json:"unit_price" yaml:"unit_price"`
	TotalQty  int64     `json:"total_qty" yaml:"total_qty"`
	Available bool      `json:"available" yaml:"available"`
	SortOrder int64     `json:"sort_order" yaml:"sort_order"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// ItemAvailability is an Item augmented with the remaining quantity for
// a queried date window.
type ItemAvailability struct {
	Item
	AvailableQty int64 `json:"available_qty"`
}
