package models

import "time"

// Order is a rental order. The [EventDate, ReturnDate] interval is the
// overlap window during which the order reserves stock. Items are an
// immutable snapshot of demand; after creation only Status and
// PaidAmount change.
type Order struct {
	ID              int64       `json:"id"`
	CustomerID      int64       `json:"customer_id"`
	CustomerName    string      `json:"customer_name,omitempty"`
	EventDate       time.Time   `json:"event_date"`
	ReturnDate      time.Time   `json:"return_date"`
	Location        string      `json:"location"`
	Status          string      `json:"status"`
	TotalAmount     float64     `json:"total_amount"`
	AdvanceAmount   float64     `json:"advance_amount"`
	SecurityDeposit float64     `json:"security_deposit"`
	PaidAmount      float64     `json:"paid_amount"`
	Notes           string      `json:"notes,omitempty"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem links an order to a catalog item with the quantity and the
// unit price at booking time.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ItemID    int64   `json:"item_id"`
	ItemName  string  `json:"item_name,omitempty"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Overlaps reports whether the order's reservation window intersects
// [start, end] under the standard closed-interval overlap test.
func (o *Order) Overlaps(start, end time.Time) bool {
	return !o.EventDate.After(end) && !o.ReturnDate.Before(start)
}

// ConsumesStock reports whether the order counts against availability.
func (o *Order) ConsumesStock() bool {
	return o.Status == OrderStatusBooked || o.Status == OrderStatusOut
}
