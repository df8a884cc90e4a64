package database

import (
	"context"
	"testing"

	"innkeep/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCustomers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, c := range []models.Customer{
		{Name: "Asha Rao", Phone: "9900112233"},
		{Name: "Ashok Nair", Phone: "9900445566"},
		{Name: "Meena Pillai", Phone: "8800112233"},
	} {
		customer := c
		require.NoError(t, db.CreateCustomer(ctx, &customer))
	}

	// Name fragment matches both Asha and Ashok.
	got, err := db.SearchCustomers(ctx, "Ash", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Phone fragment works the same way.
	got, err = db.SearchCustomers(ctx, "8800", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Meena Pillai", got[0].Name)

	// Empty query lists recent customers.
	got, err = db.SearchCustomers(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = db.SearchCustomers(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetCustomerNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetCustomer(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}
