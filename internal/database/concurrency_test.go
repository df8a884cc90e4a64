package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"innkeep/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two concurrent commits for the last unit of an item must not both
// pass the availability check.
func TestConcurrentOrderCommit(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	customer := createTestCustomer(t, db)
	scarce := createTestItem(t, db, "Sound System", 1, 300)

	eventDate := mustDate(t, "2024-06-01")
	returnDate := mustDate(t, "2024-06-03")

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			order := &models.Order{
				CustomerID: customer.ID,
				EventDate:  eventDate,
				ReturnDate: returnDate,
				Location:   "Community Hall",
				Items:      []models.OrderItem{{ItemID: scarce.ID, Quantity: 1, UnitPrice: 300}},
			}
			results <- db.CreateOrder(ctx, order)
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
		}
	}
	assert.Equal(t, 1, successCount, "exactly one commit may win the last unit")

	usage, err := db.GetUsageForWindow(ctx, mustDate(t, "2024-06-01"), mustDate(t, "2024-06-03"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), usage[scarce.ID])
}
