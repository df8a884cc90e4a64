package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"innkeep/internal/config"
	"innkeep/internal/database"
	"innkeep/internal/events"
	"innkeep/internal/notify"
	"innkeep/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsEndpointUnavailableWithoutHub(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/events", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEventsEndpointStreamsHints(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := events.NewEventBus()
	hub := notify.NewHub(bus, nil, "", &logger)

	cfg := &config.Config{}
	server := NewServer(cfg, Deps{
		Rentals: service.NewRentalService(db, bus, nil, nil, &logger),
		Stays:   service.NewStayService(db, bus, &logger),
		Food:    service.NewFoodService(db, bus, nil, &logger),
		Halls:   service.NewHallService(db, bus, &logger),
		DB:      db,
		Hub:     hub,
	}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		server.Handler().ServeHTTP(rec, req)
		close(done)
	}()

	// Let the handler subscribe before publishing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, bus.PublishJSON(events.EventOrderCreated, events.RefreshHint{
		Entity: "order", ID: 5, Action: "created",
	}))

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not stop on context cancel")
	}

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: refresh")
	assert.Contains(t, body, `"entity":"order"`)
	assert.Contains(t, body, `"id":5`)
}
