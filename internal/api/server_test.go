package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"innkeep/internal/config"
	"innkeep/internal/database"
	"innkeep/internal/models"
	"innkeep/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler http.Handler
	db      *database.DB
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Server.Port = 0
	if mutate != nil {
		mutate(cfg)
	}

	rentals := service.NewRentalService(db, nil, nil, nil, &logger)
	stays := service.NewStayService(db, nil, &logger)
	food := service.NewFoodService(db, nil, nil, &logger)
	halls := service.NewHallService(db, nil, &logger)

	server := NewServer(cfg, Deps{
		Rentals: rentals,
		Stays:   stays,
		Food:    food,
		Halls:   halls,
		DB:      db,
	}, &logger)

	return &testEnv{handler: server.Handler(), db: db}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:34567"
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func (e *testEnv) seedCustomer(t *testing.T) *models.Customer {
	t.Helper()
	customer := &models.Customer{Name: "Ravi Kumar", Phone: "9876543210"}
	require.NoError(t, e.db.CreateCustomer(context.Background(), customer))
	return customer
}

func (e *testEnv) seedItem(t *testing.T, name string, qty int64) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, UnitPrice: 5, TotalQty: qty, Available: true}
	require.NoError(t, e.db.CreateItem(context.Background(), item))
	return item
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestItemAvailabilityEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	customer := env.seedCustomer(t)
	chairs := env.seedItem(t, "Plastic Chair", 10)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_id": customer.ID,
		"event_date":  "2024-06-01",
		"return_date": "2024-06-03",
		"location":    "Community grounds",
		"items": []map[string]any{
			{"item_id": chairs.ID, "quantity": 6},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/items/availability?eventDate=2024-06-02&returnDate=2024-06-02", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []models.ItemAvailability `json:"items"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(4), resp.Items[0].AvailableQty)

	// Outside the window the full stock is free.
	rec = env.do(t, http.MethodGet, "/api/v1/items/availability?eventDate=2024-06-10", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(10), resp.Items[0].AvailableQty)
}

func TestItemAvailabilityRequiresEventDate(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/items/availability", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/items/availability?eventDate=junk", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderOversubscriptionPayload(t *testing.T) {
	env := newTestEnv(t, nil)
	customer := env.seedCustomer(t)
	chairs := env.seedItem(t, "Plastic Chair", 10)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_id": customer.ID,
		"event_date":  "2024-06-01",
		"return_date": "2024-06-03",
		"location":    "Community grounds",
		"items":       []map[string]any{{"item_id": chairs.ID, "quantity": 6}},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_id": customer.ID,
		"event_date":  "2024-06-02",
		"location":    "Temple street",
		"items":       []map[string]any{{"item_id": chairs.ID, "quantity": 5}},
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error     string `json:"error"`
		ItemID    int64  `json:"item_id"`
		ItemName  string `json:"item_name"`
		Requested int64  `json:"requested"`
		Available int64  `json:"available"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, chairs.ID, resp.ItemID)
	assert.Equal(t, "Plastic Chair", resp.ItemName)
	assert.Equal(t, int64(5), resp.Requested)
	assert.Equal(t, int64(4), resp.Available)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	customer := env.seedCustomer(t)
	item := env.seedItem(t, "Plastic Chair", 10)

	tests := []struct {
		name string
		body map[string]any
	}{
		{
			name: "missing customer",
			body: map[string]any{
				"event_date": "2024-06-01",
				"location":   "grounds",
				"items":      []map[string]any{{"item_id": item.ID, "quantity": 1}},
			},
		},
		{
			name: "missing location",
			body: map[string]any{
				"customer_id": customer.ID,
				"event_date":  "2024-06-01",
				"items":       []map[string]any{{"item_id": item.ID, "quantity": 1}},
			},
		},
		{
			name: "no items",
			body: map[string]any{
				"customer_id": customer.ID,
				"event_date":  "2024-06-01",
				"location":    "grounds",
				"items":       []map[string]any{},
			},
		},
		{
			name: "zero quantity",
			body: map[string]any{
				"customer_id": customer.ID,
				"event_date":  "2024-06-01",
				"location":    "grounds",
				"items":       []map[string]any{{"item_id": item.ID, "quantity": 0}},
			},
		},
		{
			name: "bad date",
			body: map[string]any{
				"customer_id": customer.ID,
				"event_date":  "01/06/2024",
				"location":    "grounds",
				"items":       []map[string]any{{"item_id": item.ID, "quantity": 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/orders", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestOrderStatusTransitionsOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	customer := env.seedCustomer(t)
	item := env.seedItem(t, "Plastic Chair", 10)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_id": customer.ID,
		"event_date":  "2024-06-01",
		"location":    "grounds",
		"items":       []map[string]any{{"item_id": item.ID, "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	decodeBody(t, rec, &order)

	// BOOKED cannot jump straight to RETURNED.
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/orders/%d/status", order.ID),
		map[string]any{"status": models.OrderStatusReturned}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/orders/%d/status", order.ID),
		map[string]any{"status": models.OrderStatusOut}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/v1/orders/999/status",
		map[string]any{"status": models.OrderStatusOut}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStayCheckoutOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)

	room := &models.Room{Number: "101", NightlyRate: 1500, IsActive: true}
	require.NoError(t, env.db.CreateRoom(context.Background(), room))

	rec := env.do(t, http.MethodPost, "/api/v1/stays", map[string]any{
		"room_id":     room.ID,
		"guest_name":  "Priya Menon",
		"guest_phone": "9000012345",
		"advance":     500,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var stay models.Stay
	decodeBody(t, rec, &stay)
	assert.Equal(t, float64(1500), stay.NightlyRate)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/stays/%d/checkout", stay.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var bill models.Bill
	decodeBody(t, rec, &bill)
	assert.Equal(t, int64(1), bill.Nights)
	assert.Equal(t, float64(1500), bill.Total)
	assert.Equal(t, float64(1000), bill.Due)

	// Checking out again fails.
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/stays/%d/checkout", stay.ID), nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKitchenWorkflowOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/menu", map[string]any{
		"name":  "Masala Dosa",
		"price": 80,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var menuItem models.MenuItem
	decodeBody(t, rec, &menuItem)

	rec = env.do(t, http.MethodPost, "/api/v1/food-orders", map[string]any{
		"table": "T4",
		"items": []map[string]any{{"menu_item_id": menuItem.ID, "quantity": 2}},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ticket models.FoodOrder
	decodeBody(t, rec, &ticket)
	assert.Equal(t, float64(160), ticket.Total)

	rec = env.do(t, http.MethodGet, "/api/v1/food-orders?status=PLACED", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var board struct {
		Orders []models.FoodOrder `json:"orders"`
	}
	decodeBody(t, rec, &board)
	require.Len(t, board.Orders, 1)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/food-orders/%d/status", ticket.ID),
		map[string]any{"status": models.FoodStatusPreparing}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthEnforcement(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Auth.Enabled = true
		cfg.Auth.HeaderAPIKey = "x-api-key"
		cfg.Auth.APIKeys = []config.ClientKey{
			{Key: "full-access", Name: "frontdesk", Permissions: []string{"read", "write"}},
			{Key: "read-only", Name: "kitchen-display", Permissions: []string{"read"}},
		}
	})

	// No key.
	rec := env.do(t, http.MethodGet, "/api/v1/items", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key.
	rec = env.do(t, http.MethodGet, "/api/v1/items", nil, map[string]string{"x-api-key": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Read-only key can read.
	rec = env.do(t, http.MethodGet, "/api/v1/items", nil, map[string]string{"x-api-key": "read-only"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Read-only key cannot write.
	rec = env.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Chair"},
		map[string]string{"x-api-key": "read-only"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Full-access key can write.
	rec = env.do(t, http.MethodPost, "/api/v1/items", map[string]any{"name": "Chair"},
		map[string]string{"x-api-key": "full-access"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// The health probe stays open.
	rec = env.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiting(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.RateLimit.RPS = 0.001
		cfg.RateLimit.Burst = 2
	})

	rec := env.do(t, http.MethodGet, "/api/v1/items", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/items", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/items", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUnknownFieldsRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/items", map[string]any{
		"name":    "Chair",
		"bogus":   true,
		"another": 1,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHallBookingOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)
	customer := env.seedCustomer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/halls", map[string]any{
		"name":       "Lotus Hall",
		"capacity":   200,
		"daily_rate": 5000,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var hall models.Hall
	decodeBody(t, rec, &hall)
	assert.True(t, hall.IsActive)

	rec = env.do(t, http.MethodPost, "/api/v1/hall-bookings", map[string]any{
		"hall_id":     hall.ID,
		"customer_id": customer.ID,
		"event_date":  "2024-07-15",
		"purpose":     "wedding reception",
		"total":       5000,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Double booking the same date is rejected.
	rec = env.do(t, http.MethodPost, "/api/v1/hall-bookings", map[string]any{
		"hall_id":     hall.ID,
		"customer_id": customer.ID,
		"event_date":  "2024-07-15",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/halls/availability?date=2024-07-15", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var avail struct {
		Halls []struct {
			models.Hall
			Available bool `json:"available"`
		} `json:"halls"`
	}
	decodeBody(t, rec, &avail)
	require.Len(t, avail.Halls, 1)
	assert.False(t, avail.Halls[0].Available)
}
