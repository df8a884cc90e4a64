package domain

import (
	"context"

	"innkeep/internal/models"
)

// EventPublisher fans out entity-changed hints. Delivery is
// best-effort: consumers treat hints as cache-invalidation signals,
// never as the source of truth.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker accepts durable ledger-sync work for rental orders.
type SyncWorker interface {
	EnqueueUpsert(ctx context.Context, order *models.Order) error
	EnqueueStatus(ctx context.Context, orderID int64, status string) error
}

// StaffNotifier pushes human-readable notices to the staff channel.
type StaffNotifier interface {
	NotifyStaff(text string)
}
