package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"innkeep/internal/database"
	"innkeep/internal/domain"
	"innkeep/internal/events"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
)

// RentalService owns the rental catalog, availability queries and the
// order lifecycle.
type RentalService struct {
	db       *database.DB
	eventBus domain.EventPublisher
	sync     domain.SyncWorker
	notifier domain.StaffNotifier
	logger   *zerolog.Logger
}

func NewRentalService(db *database.DB, eventBus domain.EventPublisher, sync domain.SyncWorker, notifier domain.StaffNotifier, logger *zerolog.Logger) *RentalService {
	return &RentalService{
		db:       db,
		eventBus: eventBus,
		sync:     sync,
		notifier: notifier,
		logger:   logger,
	}
}

// GetAvailability returns the rentable catalog with remaining quantity
// for the window. Retired items never appear.
func (s *RentalService) GetAvailability(ctx context.Context, eventDate time.Time, returnDate *time.Time) ([]models.ItemAvailability, error) {
	start, end := NormalizeWindow(eventDate, returnDate)
	if end.Before(start) {
		return nil, database.ErrInvalidDateRange
	}

	items, err := s.db.GetItems(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.db.GetOrdersOverlapping(ctx, start, end)
	if err != nil {
		return nil, err
	}

	availability := ComputeAvailability(items, orders, start, end)

	result := make([]models.ItemAvailability, 0, len(availability))
	for _, item := range items {
		remaining, ok := availability[item.ID]
		if !ok {
			continue
		}
		result = append(result, models.ItemAvailability{Item: item, AvailableQty: remaining})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SortOrder == result[j].SortOrder {
			return result[i].ID < result[j].ID
		}
		return result[i].SortOrder < result[j].SortOrder
	})
	return result, nil
}

// CreateOrder validates and commits a rental order. The stock re-check
// and the insert run in one transaction inside the database layer, so
// concurrent commits cannot oversubscribe an item.
func (s *RentalService) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ReturnDate.IsZero() {
		order.ReturnDate = order.EventDate
	}
	if order.ReturnDate.Before(order.EventDate) {
		return database.ErrInvalidDateRange
	}

	if _, err := s.db.GetCustomer(ctx, order.CustomerID); err != nil {
		return fmt.Errorf("customer %d: %w", order.CustomerID, err)
	}

	if err := s.db.CreateOrder(ctx, order); err != nil {
		return err
	}

	s.publishHint(events.EventOrderCreated, "order", order.ID, "created")
	s.enqueueUpsert(ctx, order)
	if s.notifier != nil {
		s.notifier.NotifyStaff(fmt.Sprintf("New rental order #%d for %s, event %s, total %.2f",
			order.ID, order.CustomerName, order.EventDate.Format(models.DateLayout), order.TotalAmount))
	}
	return nil
}

func (s *RentalService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.db.GetOrder(ctx, id)
}

func (s *RentalService) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	return s.db.ListOrders(ctx, status)
}

// UpdateStatus applies a forward-only lifecycle transition and emits a
// refresh hint. Cancelling releases the order's reserved units for all
// subsequent availability computations.
func (s *RentalService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	order, err := s.db.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.publishHint(events.EventOrderStatusChanged, "order", order.ID, status)
	s.enqueueStatus(ctx, order.ID, status)
	return order, nil
}

func (s *RentalService) UpdatePayment(ctx context.Context, id int64, paidAmount float64) (*models.Order, error) {
	if paidAmount < 0 {
		return nil, fmt.Errorf("paid amount must not be negative")
	}

	order, err := s.db.UpdateOrderPayment(ctx, id, paidAmount)
	if err != nil {
		return nil, err
	}

	s.publishHint(events.EventOrderPaymentTaken, "order", order.ID, "payment")
	s.enqueueUpsert(ctx, order)
	return order, nil
}

func (s *RentalService) GetItems(ctx context.Context) ([]models.Item, error) {
	return s.db.GetItems(ctx)
}

func (s *RentalService) CreateItem(ctx context.Context, item *models.Item) error {
	return s.db.CreateItem(ctx, item)
}

func (s *RentalService) UpdateItem(ctx context.Context, item *models.Item) error {
	return s.db.UpdateItem(ctx, item)
}

func (s *RentalService) publishHint(eventType, entity string, id int64, action string) {
	if s.eventBus == nil {
		return
	}
	hint := events.RefreshHint{Entity: entity, ID: id, Action: action}
	if err := s.eventBus.PublishJSON(eventType, hint); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("id", id).Msg("publish event error")
	}
}

func (s *RentalService) enqueueUpsert(ctx context.Context, order *models.Order) {
	if s.sync == nil {
		return
	}
	if err := s.sync.EnqueueUpsert(ctx, order); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("ledger enqueue error")
	}
}

func (s *RentalService) enqueueStatus(ctx context.Context, orderID int64, status string) {
	if s.sync == nil {
		return
	}
	if err := s.sync.EnqueueStatus(ctx, orderID, status); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("ledger enqueue error")
	}
}
