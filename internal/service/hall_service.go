package service

import (
	"context"
	"fmt"
	"time"

	"innkeep/internal/database"
	"innkeep/internal/domain"
	"innkeep/internal/events"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
)

// HallService handles party-hall bookings. A hall takes at most one
// non-cancelled booking per date.
type HallService struct {
	db       *database.DB
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewHallService(db *database.DB, eventBus domain.EventPublisher, logger *zerolog.Logger) *HallService {
	return &HallService{db: db, eventBus: eventBus, logger: logger}
}

func (s *HallService) GetHalls(ctx context.Context) ([]models.Hall, error) {
	return s.db.GetHalls(ctx)
}

// HallAvailability pairs a hall with whether it is free on a date.
type HallAvailability struct {
	models.Hall
	Available bool `json:"available"`
}

func (s *HallService) GetAvailability(ctx context.Context, date time.Time) ([]HallAvailability, error) {
	halls, err := s.db.GetHalls(ctx)
	if err != nil {
		return nil, err
	}
	booked, err := s.db.GetBookedHallIDs(ctx, date)
	if err != nil {
		return nil, err
	}

	result := make([]HallAvailability, 0, len(halls))
	for _, hall := range halls {
		result = append(result, HallAvailability{Hall: hall, Available: !booked[hall.ID]})
	}
	return result, nil
}

func (s *HallService) Book(ctx context.Context, booking *models.HallBooking) error {
	if _, err := s.db.GetCustomer(ctx, booking.CustomerID); err != nil {
		return fmt.Errorf("customer %d: %w", booking.CustomerID, err)
	}

	if err := s.db.CreateHallBooking(ctx, booking); err != nil {
		return err
	}

	s.publishHint(events.EventHallBooked, booking.ID, "created")
	return nil
}

func (s *HallService) ListBookings(ctx context.Context, date *time.Time) ([]models.HallBooking, error) {
	return s.db.ListHallBookings(ctx, date)
}

func (s *HallService) UpdateStatus(ctx context.Context, id int64, status string) (*models.HallBooking, error) {
	booking, err := s.db.UpdateHallBookingStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.publishHint(events.EventHallStatusChanged, booking.ID, status)
	return booking, nil
}

func (s *HallService) publishHint(eventType string, id int64, action string) {
	if s.eventBus == nil {
		return
	}
	hint := events.RefreshHint{Entity: "hall_booking", ID: id, Action: action}
	if err := s.eventBus.PublishJSON(eventType, hint); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("id", id).Msg("publish event error")
	}
}
