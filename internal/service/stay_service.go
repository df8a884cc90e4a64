package service

import (
	"context"
	"fmt"
	"time"

	"innkeep/internal/database"
	"innkeep/internal/domain"
	"innkeep/internal/events"
	"innkeep/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StayService handles guest check-in, checkout and billing.
type StayService struct {
	db       *database.DB
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewStayService(db *database.DB, eventBus domain.EventPublisher, logger *zerolog.Logger) *StayService {
	return &StayService{db: db, eventBus: eventBus, logger: logger}
}

// CheckIn opens a stay. The room must be active and free; the nightly
// rate defaults to the room's rate when the caller leaves it zero.
func (s *StayService) CheckIn(ctx context.Context, stay *models.Stay) error {
	room, err := s.db.GetRoom(ctx, stay.RoomID)
	if err != nil {
		return fmt.Errorf("room %d: %w", stay.RoomID, err)
	}
	if !room.IsActive {
		return fmt.Errorf("room %s is not in service", room.Number)
	}

	if stay.NightlyRate == 0 {
		stay.NightlyRate = room.NightlyRate
	}
	if stay.CheckIn.IsZero() {
		stay.CheckIn = time.Now()
	}

	if err := s.db.CreateStay(ctx, stay); err != nil {
		return err
	}
	stay.RoomNumber = room.Number

	s.publishHint(events.EventStayCheckedIn, "stay", stay.ID, "checked_in")
	return nil
}

// CheckOut closes a stay and returns the final bill.
func (s *StayService) CheckOut(ctx context.Context, stayID int64) (*models.Bill, error) {
	stay, err := s.db.CheckoutStay(ctx, stayID, time.Now())
	if err != nil {
		return nil, err
	}

	bill, err := s.buildBill(ctx, stay)
	if err != nil {
		return nil, err
	}

	s.publishHint(events.EventStayCheckedOut, "stay", stay.ID, "checked_out")
	return bill, nil
}

// GetBill computes the running bill for a stay without closing it.
func (s *StayService) GetBill(ctx context.Context, stayID int64) (*models.Bill, error) {
	stay, err := s.db.GetStay(ctx, stayID)
	if err != nil {
		return nil, err
	}
	return s.buildBill(ctx, stay)
}

func (s *StayService) GetStay(ctx context.Context, id int64) (*models.Stay, error) {
	return s.db.GetStay(ctx, id)
}

func (s *StayService) ListStays(ctx context.Context, status string) ([]models.Stay, error) {
	return s.db.ListStays(ctx, status)
}

// buildBill is pure arithmetic over already-fetched rows: room-nights
// times the snapshotted rate, plus non-cancelled food orders charged to
// the stay, minus the advance.
func (s *StayService) buildBill(ctx context.Context, stay *models.Stay) (*models.Bill, error) {
	foodOrders, err := s.db.GetFoodOrdersForStay(ctx, stay.ID)
	if err != nil {
		return nil, err
	}

	var foodCharge float64
	for _, order := range foodOrders {
		foodCharge += order.Total
	}

	nights := stay.Nights(time.Now())
	roomCharge := float64(nights) * stay.NightlyRate
	total := roomCharge + foodCharge

	return &models.Bill{
		Number:      uuid.NewString(),
		StayID:      stay.ID,
		Nights:      nights,
		NightlyRate: stay.NightlyRate,
		RoomCharge:  roomCharge,
		FoodCharge:  foodCharge,
		FoodOrders:  foodOrders,
		Advance:     stay.Advance,
		Total:       total,
		Due:         total - stay.Advance,
		GeneratedAt: time.Now(),
	}, nil
}

func (s *StayService) publishHint(eventType string, entity string, id int64, action string) {
	if s.eventBus == nil {
		return
	}
	hint := events.RefreshHint{Entity: entity, ID: id, Action: action}
	if err := s.eventBus.PublishJSON(eventType, hint); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("id", id).Msg("publish event error")
	}
}
