package service

import (
	"time"

	"innkeep/internal/models"
)

// NormalizeWindow applies the edge-case policy for availability
// queries: a missing return date collapses the window to the single
// event day.
func NormalizeWindow(eventDate time.Time, returnDate *time.Time) (time.Time, time.Time) {
	if returnDate == nil || returnDate.IsZero() {
		return eventDate, eventDate
	}
	return eventDate, *returnDate
}

// ComputeAvailability is the availability accountant. Given the catalog
// and a set of orders, it returns per-item remaining quantity for the
// [rangeStart, rangeEnd] window:
//
//  1. Only BOOKED and OUT orders whose [event, return] interval
//     overlaps the window consume stock.
//  2. Demand is summed per item into a usage map.
//  3. Each item still marked available yields max(0, totalQty - usage);
//     retired items are excluded from the result entirely.
//
// The function is pure: same inputs, same map.
func ComputeAvailability(items []models.Item, orders []models.Order, rangeStart, rangeEnd time.Time) map[int64]int64 {
	usage := make(map[int64]int64)
	for i := range orders {
		order := &orders[i]
		if !order.ConsumesStock() || !order.Overlaps(rangeStart, rangeEnd) {
			continue
		}
		for _, line := range order.Items {
			usage[line.ItemID] += line.Quantity
		}
	}

	availability := make(map[int64]int64, len(items))
	for _, item := range items {
		if !item.Available {
			continue
		}
		remaining := item.TotalQty - usage[item.ID]
		if remaining < 0 {
			remaining = 0
		}
		availability[item.ID] = remaining
	}
	return availability
}
