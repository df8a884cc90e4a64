package database

import (
	"context"
	"testing"
	"time"

	"innkeep/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestMenuItem(t *testing.T, db *DB, name string, price float64) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{Name: name, Category: "mains", Price: price, Available: true}
	require.NoError(t, db.CreateMenuItem(context.Background(), item))
	return item
}

func TestCreateFoodOrderSnapshotsMenuPrices(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	biryani := createTestMenuItem(t, db, "Chicken Biryani", 180)
	tea := createTestMenuItem(t, db, "Masala Tea", 20)

	order := &models.FoodOrder{
		Table: "T4",
		Items: []models.FoodOrderItem{
			{MenuItemID: biryani.ID, Quantity: 2},
			{MenuItemID: tea.ID, Quantity: 3},
		},
	}
	require.NoError(t, db.CreateFoodOrder(ctx, order))

	assert.Equal(t, models.FoodStatusPlaced, order.Status)
	assert.Equal(t, float64(2*180+3*20), order.Total)

	// A later menu price change must not touch the snapshot.
	biryani.Price = 220
	require.NoError(t, db.UpdateMenuItem(ctx, biryani))

	got, err := db.GetFoodOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, float64(180), got.Items[0].Price)
	assert.Equal(t, "Chicken Biryani", got.Items[0].Name)
}

func TestCreateFoodOrderRejectsUnknownMenuItem(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	off := &models.MenuItem{Name: "Seasonal Special", Price: 250, Available: false}
	require.NoError(t, db.CreateMenuItem(ctx, off))

	var unknownErr *UnknownItemError

	order := &models.FoodOrder{
		Table: "T1",
		Items: []models.FoodOrderItem{{MenuItemID: 999, Quantity: 1}},
	}
	require.ErrorAs(t, db.CreateFoodOrder(ctx, order), &unknownErr)

	order.Items[0].MenuItemID = off.ID
	require.ErrorAs(t, db.CreateFoodOrder(ctx, order), &unknownErr)
}

func TestFoodOrderStatusWorkflow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tea := createTestMenuItem(t, db, "Masala Tea", 20)
	order := &models.FoodOrder{
		Table: "T2",
		Items: []models.FoodOrderItem{{MenuItemID: tea.ID, Quantity: 1}},
	}
	require.NoError(t, db.CreateFoodOrder(ctx, order))

	// PLACED -> SERVED skips the kitchen and must fail.
	_, err := db.UpdateFoodOrderStatus(ctx, order.ID, models.FoodStatusServed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	for _, status := range []string{models.FoodStatusPreparing, models.FoodStatusReady, models.FoodStatusServed} {
		got, err := db.UpdateFoodOrderStatus(ctx, order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	// SERVED is terminal; cancelling is no longer possible.
	_, err = db.UpdateFoodOrderStatus(ctx, order.ID, models.FoodStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestKitchenBoardOrderingAndStayCharges(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	room := createTestRoom(t, db, "201", 1500)
	stay := &models.Stay{RoomID: room.ID, GuestName: "Ravi", GuestPhone: "1", CheckIn: time.Now()}
	require.NoError(t, db.CreateStay(ctx, stay))

	tea := createTestMenuItem(t, db, "Masala Tea", 20)

	first := &models.FoodOrder{StayID: &stay.ID, Items: []models.FoodOrderItem{{MenuItemID: tea.ID, Quantity: 2}}}
	require.NoError(t, db.CreateFoodOrder(ctx, first))

	second := &models.FoodOrder{Table: "T9", Items: []models.FoodOrderItem{{MenuItemID: tea.ID, Quantity: 1}}}
	require.NoError(t, db.CreateFoodOrder(ctx, second))

	// Oldest ticket first for the kitchen board.
	board, err := db.ListFoodOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, first.ID, board[0].ID)

	// A cancelled ticket never lands on the guest's bill.
	cancelled := &models.FoodOrder{StayID: &stay.ID, Items: []models.FoodOrderItem{{MenuItemID: tea.ID, Quantity: 5}}}
	require.NoError(t, db.CreateFoodOrder(ctx, cancelled))
	_, err = db.UpdateFoodOrderStatus(ctx, cancelled.ID, models.FoodStatusCancelled)
	require.NoError(t, err)

	charges, err := db.GetFoodOrdersForStay(ctx, stay.ID)
	require.NoError(t, err)
	require.Len(t, charges, 1)
	assert.Equal(t, first.ID, charges[0].ID)
}
