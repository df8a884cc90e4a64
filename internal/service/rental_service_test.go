package service

import (
	"context"
	"os"
	"testing"
	"time"

	"innkeep/internal/database"
	"innkeep/internal/events"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSync struct {
	upserts  []int64
	statuses []string
}

func (r *recordingSync) EnqueueUpsert(_ context.Context, order *models.Order) error {
	r.upserts = append(r.upserts, order.ID)
	return nil
}

func (r *recordingSync) EnqueueStatus(_ context.Context, orderID int64, status string) error {
	r.statuses = append(r.statuses, status)
	return nil
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) NotifyStaff(text string) {
	r.messages = append(r.messages, text)
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCustomer(t *testing.T, db *database.DB) *models.Customer {
	t.Helper()
	customer := &models.Customer{Name: "Ravi Kumar", Phone: "9876543210"}
	require.NoError(t, db.CreateCustomer(context.Background(), customer))
	return customer
}

func seedItem(t *testing.T, db *database.DB, name string, qty int64) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, UnitPrice: 5, TotalQty: qty, Available: true}
	require.NoError(t, db.CreateItem(context.Background(), item))
	return item
}

func TestRentalServiceCreateOrder(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)

	bus := events.NewEventBus()
	var hints []string
	bus.SubscribeAll(func(event *events.Event) error {
		hints = append(hints, event.Type)
		return nil
	})

	sync := &recordingSync{}
	notifier := &recordingNotifier{}
	svc := NewRentalService(db, bus, sync, notifier, &logger)

	customer := seedCustomer(t, db)
	item := seedItem(t, db, "Plastic Chair", 10)

	order := &models.Order{
		CustomerID: customer.ID,
		EventDate:  date(t, "2024-06-01"),
		Location:   "Community grounds",
		Items:      []models.OrderItem{{ItemID: item.ID, Quantity: 4}},
	}
	require.NoError(t, svc.CreateOrder(context.Background(), order))

	// A missing return date collapses to the event day.
	assert.Equal(t, order.EventDate, order.ReturnDate)
	assert.Equal(t, models.OrderStatusBooked, order.Status)

	assert.Equal(t, []string{events.EventOrderCreated}, hints)
	assert.Equal(t, []int64{order.ID}, sync.upserts)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "rental order")
}

func TestRentalServiceCreateOrderUnknownCustomer(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	svc := NewRentalService(db, nil, nil, nil, &logger)

	item := seedItem(t, db, "Plastic Chair", 10)
	order := &models.Order{
		CustomerID: 999,
		EventDate:  date(t, "2024-06-01"),
		Location:   "Community grounds",
		Items:      []models.OrderItem{{ItemID: item.ID, Quantity: 1}},
	}
	err := svc.CreateOrder(context.Background(), order)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRentalServiceGetAvailability(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	svc := NewRentalService(db, nil, nil, nil, &logger)
	ctx := context.Background()

	customer := seedCustomer(t, db)
	chairs := seedItem(t, db, "Plastic Chair", 10)
	tables := seedItem(t, db, "Folding Table", 4)

	order := &models.Order{
		CustomerID: customer.ID,
		EventDate:  date(t, "2024-06-01"),
		ReturnDate: date(t, "2024-06-03"),
		Location:   "Community grounds",
		Items:      []models.OrderItem{{ItemID: chairs.ID, Quantity: 6}},
	}
	require.NoError(t, svc.CreateOrder(ctx, order))

	inside := date(t, "2024-06-02")
	got, err := svc.GetAvailability(ctx, inside, &inside)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := make(map[int64]int64, len(got))
	for _, entry := range got {
		byID[entry.ID] = entry.AvailableQty
	}
	assert.Equal(t, int64(4), byID[chairs.ID])
	assert.Equal(t, int64(4), byID[tables.ID])

	// Cancelling the order returns the stock.
	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	got, err = svc.GetAvailability(ctx, inside, &inside)
	require.NoError(t, err)
	byID = make(map[int64]int64, len(got))
	for _, entry := range got {
		byID[entry.ID] = entry.AvailableQty
	}
	assert.Equal(t, int64(10), byID[chairs.ID])
}

func TestRentalServiceGetAvailabilityBackwardsWindow(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	svc := NewRentalService(db, nil, nil, nil, &logger)

	start := date(t, "2024-06-05")
	end := date(t, "2024-06-01")
	_, err := svc.GetAvailability(context.Background(), start, &end)
	assert.ErrorIs(t, err, database.ErrInvalidDateRange)
}

func TestRentalServiceUpdateStatusEnqueuesLedgerSync(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	sync := &recordingSync{}
	svc := NewRentalService(db, nil, sync, nil, &logger)
	ctx := context.Background()

	customer := seedCustomer(t, db)
	item := seedItem(t, db, "Plastic Chair", 10)
	order := &models.Order{
		CustomerID: customer.ID,
		EventDate:  date(t, "2024-06-01"),
		Location:   "Community grounds",
		Items:      []models.OrderItem{{ItemID: item.ID, Quantity: 1}},
	}
	require.NoError(t, svc.CreateOrder(ctx, order))

	_, err := svc.UpdateStatus(ctx, order.ID, models.OrderStatusOut)
	require.NoError(t, err)
	assert.Equal(t, []string{models.OrderStatusOut}, sync.statuses)
}

func TestRentalServiceUpdatePayment(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	svc := NewRentalService(db, nil, nil, nil, &logger)
	ctx := context.Background()

	customer := seedCustomer(t, db)
	item := seedItem(t, db, "Plastic Chair", 10)
	order := &models.Order{
		CustomerID: customer.ID,
		EventDate:  date(t, "2024-06-01"),
		Location:   "Community grounds",
		Items:      []models.OrderItem{{ItemID: item.ID, Quantity: 2}},
	}
	require.NoError(t, svc.CreateOrder(ctx, order))

	_, err := svc.UpdatePayment(ctx, order.ID, -5)
	assert.Error(t, err)

	got, err := svc.UpdatePayment(ctx, order.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, float64(10), got.PaidAmount)
}

func TestStayServiceBill(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	stays := NewStayService(db, nil, &logger)
	food := NewFoodService(db, nil, nil, &logger)
	ctx := context.Background()

	room := &models.Room{Number: "101", Type: "deluxe", NightlyRate: 1500, IsActive: true}
	require.NoError(t, db.CreateRoom(ctx, room))

	stay := &models.Stay{
		RoomID:     room.ID,
		GuestName:  "Priya Menon",
		GuestPhone: "9000012345",
		CheckIn:    time.Now().Add(-48 * time.Hour),
		Advance:    1000,
	}
	require.NoError(t, stays.CheckIn(ctx, stay))
	// Rate defaults from the room.
	assert.Equal(t, float64(1500), stay.NightlyRate)

	dosa := &models.MenuItem{Name: "Masala Dosa", Price: 80, Available: true}
	require.NoError(t, food.CreateMenuItem(ctx, dosa))

	ticket := &models.FoodOrder{
		StayID: &stay.ID,
		Items:  []models.FoodOrderItem{{MenuItemID: dosa.ID, Quantity: 2}},
	}
	require.NoError(t, food.PlaceOrder(ctx, ticket))

	bill, err := stays.CheckOut(ctx, stay.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), bill.Nights)
	assert.Equal(t, float64(3000), bill.RoomCharge)
	assert.Equal(t, float64(160), bill.FoodCharge)
	assert.Equal(t, float64(3160), bill.Total)
	assert.Equal(t, float64(2160), bill.Due)
	assert.NotEmpty(t, bill.Number)

	// Room service on a closed stay is rejected.
	late := &models.FoodOrder{
		StayID: &stay.ID,
		Items:  []models.FoodOrderItem{{MenuItemID: dosa.ID, Quantity: 1}},
	}
	assert.Error(t, food.PlaceOrder(ctx, late))
}

func TestStayServiceCheckInInactiveRoom(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	stays := NewStayService(db, nil, &logger)
	ctx := context.Background()

	room := &models.Room{Number: "102", NightlyRate: 1200, IsActive: false}
	require.NoError(t, db.CreateRoom(ctx, room))

	stay := &models.Stay{RoomID: room.ID, GuestName: "Priya Menon", GuestPhone: "9000012345"}
	assert.Error(t, stays.CheckIn(ctx, stay))
}

func TestHallServiceAvailability(t *testing.T) {
	db := newTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	halls := NewHallService(db, nil, &logger)
	ctx := context.Background()

	customer := seedCustomer(t, db)

	lotus := &models.Hall{Name: "Lotus Hall", Capacity: 200, DailyRate: 5000, IsActive: true}
	require.NoError(t, db.CreateHall(ctx, lotus))
	jasmine := &models.Hall{Name: "Jasmine Hall", Capacity: 80, DailyRate: 2500, IsActive: true}
	require.NoError(t, db.CreateHall(ctx, jasmine))

	eventDate := date(t, "2024-07-15")
	booking := &models.HallBooking{
		HallID:     lotus.ID,
		CustomerID: customer.ID,
		EventDate:  eventDate,
		Purpose:    "wedding reception",
		Total:      5000,
	}
	require.NoError(t, halls.Book(ctx, booking))

	got, err := halls.GetAvailability(ctx, eventDate)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byName := make(map[string]bool, len(got))
	for _, entry := range got {
		byName[entry.Name] = entry.Available
	}
	assert.False(t, byName["Lotus Hall"])
	assert.True(t, byName["Jasmine Hall"])
}
