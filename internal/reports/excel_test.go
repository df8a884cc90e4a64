package reports

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"innkeep/internal/database"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func exportDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestExportSchedule(t *testing.T) {
	db := exportTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	ctx := context.Background()

	customer := &models.Customer{Name: "Ravi Kumar", Phone: "9876543210"}
	require.NoError(t, db.CreateCustomer(ctx, customer))

	chairs := &models.Item{Name: "Plastic Chair", UnitPrice: 5, TotalQty: 10, Available: true}
	require.NoError(t, db.CreateItem(ctx, chairs))

	order := &models.Order{
		CustomerID: customer.ID,
		EventDate:  exportDate(t, "2024-06-02"),
		ReturnDate: exportDate(t, "2024-06-03"),
		Location:   "Community grounds",
		Items:      []models.OrderItem{{ItemID: chairs.ID, Quantity: 6}},
	}
	require.NoError(t, db.CreateOrder(ctx, order))

	exporter := NewExporter(db, t.TempDir(), &logger)

	path, err := exporter.ExportSchedule(ctx, exportDate(t, "2024-06-01"), exportDate(t, "2024-06-05"))
	require.NoError(t, err)
	assert.Equal(t, "rentals_2024-06-01_to_2024-06-05.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), "Schedule")
	assert.Contains(t, f.GetSheetList(), "Orders")

	// Day columns run B..F for the five-day window; 2024-06-02 is column C.
	header, err := f.GetCellValue("Schedule", "C2")
	require.NoError(t, err)
	assert.Equal(t, "02.06", header)

	// The order holds 6 of 10 chairs on its event day.
	cell, err := f.GetCellValue("Schedule", "C3")
	require.NoError(t, err)
	assert.Equal(t, "4/10", cell)

	// The day before the event is untouched.
	cell, err = f.GetCellValue("Schedule", "B3")
	require.NoError(t, err)
	assert.Equal(t, "10/10", cell)

	// The ledger sheet carries the order row.
	status, err := f.GetCellValue("Orders", "F2")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusBooked, status)

	loc, err := f.GetCellValue("Orders", "E2")
	require.NoError(t, err)
	assert.Equal(t, "Community grounds", loc)
}

func TestExportScheduleRejectsBackwardsWindow(t *testing.T) {
	db := exportTestDB(t)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	exporter := NewExporter(db, t.TempDir(), &logger)

	_, err := exporter.ExportSchedule(context.Background(),
		exportDate(t, "2024-06-05"), exportDate(t, "2024-06-01"))
	assert.ErrorIs(t, err, database.ErrInvalidDateRange)
}
