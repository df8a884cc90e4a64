package service

import (
	"context"
	"fmt"

	"innkeep/internal/database"
	"innkeep/internal/domain"
	"innkeep/internal/events"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
)

// FoodService handles the menu and the kitchen workflow.
type FoodService struct {
	db       *database.DB
	eventBus domain.EventPublisher
	notifier domain.StaffNotifier
	logger   *zerolog.Logger
}

func NewFoodService(db *database.DB, eventBus domain.EventPublisher, notifier domain.StaffNotifier, logger *zerolog.Logger) *FoodService {
	return &FoodService{db: db, eventBus: eventBus, notifier: notifier, logger: logger}
}

func (s *FoodService) GetMenu(ctx context.Context) ([]models.MenuItem, error) {
	return s.db.GetMenu(ctx)
}

func (s *FoodService) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return s.db.CreateMenuItem(ctx, item)
}

func (s *FoodService) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return s.db.UpdateMenuItem(ctx, item)
}

// PlaceOrder opens a kitchen ticket. A room-service ticket must point
// at an open stay so the charge lands on the guest's bill.
func (s *FoodService) PlaceOrder(ctx context.Context, order *models.FoodOrder) error {
	if order.StayID != nil {
		stay, err := s.db.GetStay(ctx, *order.StayID)
		if err != nil {
			return fmt.Errorf("stay %d: %w", *order.StayID, err)
		}
		if stay.Status != models.StayStatusCheckedIn {
			return fmt.Errorf("stay %d is not open", stay.ID)
		}
	}

	if err := s.db.CreateFoodOrder(ctx, order); err != nil {
		return err
	}

	s.publishHint(events.EventFoodOrderCreated, order.ID, "created")
	if s.notifier != nil {
		s.notifier.NotifyStaff(fmt.Sprintf("New kitchen order #%d (%s), total %.2f",
			order.ID, orderTarget(order), order.Total))
	}
	return nil
}

// KitchenBoard lists tickets for the kitchen display, oldest first.
func (s *FoodService) KitchenBoard(ctx context.Context, status string) ([]models.FoodOrder, error) {
	return s.db.ListFoodOrders(ctx, status)
}

func (s *FoodService) GetOrder(ctx context.Context, id int64) (*models.FoodOrder, error) {
	return s.db.GetFoodOrder(ctx, id)
}

func (s *FoodService) UpdateStatus(ctx context.Context, id int64, status string) (*models.FoodOrder, error) {
	order, err := s.db.UpdateFoodOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.publishHint(events.EventFoodStatusChanged, order.ID, status)
	return order, nil
}

func orderTarget(order *models.FoodOrder) string {
	if order.StayID != nil {
		return fmt.Sprintf("room service, stay %d", *order.StayID)
	}
	if order.Table != "" {
		return "table " + order.Table
	}
	return "walk-in"
}

func (s *FoodService) publishHint(eventType string, id int64, action string) {
	if s.eventBus == nil {
		return
	}
	hint := events.RefreshHint{Entity: "food_order", ID: id, Action: action}
	if err := s.eventBus.PublishJSON(eventType, hint); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("id", id).Msg("publish event error")
	}
}
