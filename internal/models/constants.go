package models

// Rental order lifecycle. Transitions are forward-only:
// BOOKED -> OUT -> RETURNED, or BOOKED -> CANCELLED.
const (
	OrderStatusBooked    = "BOOKED"
	OrderStatusOut       = "OUT"
	OrderStatusReturned  = "RETURNED"
	OrderStatusCancelled = "CANCELLED"
)

// Kitchen workflow for food orders. CANCELLED is reachable only from
// PLACED and PREPARING.
const (
	FoodStatusPlaced    = "PLACED"
	FoodStatusPreparing = "PREPARING"
	FoodStatusReady     = "READY"
	FoodStatusServed    = "SERVED"
	FoodStatusCancelled = "CANCELLED"
)

const (
	StayStatusCheckedIn  = "CHECKED_IN"
	StayStatusCheckedOut = "CHECKED_OUT"
)

const (
	HallStatusBooked    = "BOOKED"
	HallStatusCompleted = "COMPLETED"
	HallStatusCancelled = "CANCELLED"
)

// Sync queue task states for the sheets ledger worker.
const (
	SyncStatusPending = "pending"
	SyncStatusRetry   = "retry"
	SyncStatusDone    = "done"
	SyncStatusFailed  = "failed"
)

const (
	// WorkerQueueSize bounds the in-memory sync worker channel.
	WorkerQueueSize = 1000

	// DefaultExportRangeMonthsBefore/After define the default window for
	// schedule exports when no explicit range is given.
	DefaultExportRangeMonthsBefore = 1
	DefaultExportRangeMonthsAfter  = 2
)

// DateLayout is the wire format for all calendar dates in the API.
const DateLayout = "2006-01-02"

// ActiveOrderStatuses lists the statuses that consume rental stock.
// CANCELLED and RETURNED orders never count against availability.
var ActiveOrderStatuses = []string{OrderStatusBooked, OrderStatusOut}

// ValidOrderTransition reports whether a rental order may move from one
// status to another.
func ValidOrderTransition(from, to string) bool {
	switch from {
	case OrderStatusBooked:
		return to == OrderStatusOut || to == OrderStatusCancelled
	case OrderStatusOut:
		return to == OrderStatusReturned
	default:
		return false
	}
}

// ValidFoodTransition reports whether a food order may move from one
// status to another.
func ValidFoodTransition(from, to string) bool {
	switch from {
	case FoodStatusPlaced:
		return to == FoodStatusPreparing || to == FoodStatusCancelled
	case FoodStatusPreparing:
		return to == FoodStatusReady || to == FoodStatusCancelled
	case FoodStatusReady:
		return to == FoodStatusServed
	default:
		return false
	}
}
