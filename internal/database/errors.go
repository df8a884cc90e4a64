package database

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDateRange is returned when a return date precedes the
	// event date.
	ErrInvalidDateRange = errors.New("return date is before event date")

	// ErrInvalidTransition is returned for a status change that is not
	// allowed by the order lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRoomOccupied is returned when a check-in targets a room that
	// already has an open stay.
	ErrRoomOccupied = errors.New("room already has an open stay")

	// ErrHallUnavailable is returned when a hall already has a
	// non-cancelled booking on the requested date.
	ErrHallUnavailable = errors.New("hall is already booked for this date")
)

// UnknownItemError reports a referenced catalog item that does not exist.
type UnknownItemError struct {
	ItemID int64
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown item %d", e.ItemID)
}

// StockError reports an order line that exceeds the remaining quantity
// for its window.
type StockError struct {
	ItemID    int64
	ItemName  string
	Requested int64
	Available int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d (%s): requested %d, available %d",
		e.ItemID, e.ItemName, e.Requested, e.Available)
}
