package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"innkeep/internal/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &logger
}

func waitForHint(t *testing.T, ch <-chan events.RefreshHint) events.RefreshHint {
	t.Helper()
	select {
	case hint := <-ch:
		return hint
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh hint")
		return events.RefreshHint{}
	}
}

func TestHubDeliversLocalHints(t *testing.T) {
	bus := events.NewEventBus()
	hub := NewHub(bus, nil, "", testLogger())

	ch, cancel := hub.Subscribe()
	defer cancel()

	require.NoError(t, bus.PublishJSON(events.EventOrderCreated, events.RefreshHint{
		Entity: "order", ID: 7, Action: "created",
	}))

	hint := waitForHint(t, ch)
	assert.Equal(t, "order", hint.Entity)
	assert.Equal(t, int64(7), hint.ID)
	assert.Equal(t, "created", hint.Action)
}

func TestHubCancelStopsDelivery(t *testing.T) {
	bus := events.NewEventBus()
	hub := NewHub(bus, nil, "", testLogger())

	ch, cancel := hub.Subscribe()
	cancel()
	// Cancelling twice is harmless.
	cancel()

	require.NoError(t, bus.PublishJSON(events.EventOrderCreated, events.RefreshHint{Entity: "order", ID: 1}))

	_, open := <-ch
	assert.False(t, open)
}

func TestHubSlowClientDoesNotBlockPublisher(t *testing.T) {
	bus := events.NewEventBus()
	hub := NewHub(bus, nil, "", testLogger())

	_, cancel := hub.Subscribe()
	defer cancel()

	// The subscriber buffer holds 16; anything beyond is dropped, and
	// publishing must never block on it.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = bus.PublishJSON(events.EventOrderCreated, events.RefreshHint{Entity: "order", ID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked on a slow subscriber")
	}
}

func TestHubRelaysAcrossInstances(t *testing.T) {
	srv := miniredis.RunT(t)
	channel := "innkeep:refresh"

	clientA := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() {
		clientA.Close()
		clientB.Close()
	})

	busA := events.NewEventBus()
	hubA := NewHub(busA, clientA, channel, testLogger())

	busB := events.NewEventBus()
	hubB := NewHub(busB, clientB, channel, testLogger())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go hubA.Run(ctx)
	go hubB.Run(ctx)

	// Give both subscriptions time to attach.
	time.Sleep(100 * time.Millisecond)

	chA, cancelA := hubA.Subscribe()
	defer cancelA()
	chB, cancelB := hubB.Subscribe()
	defer cancelB()

	require.NoError(t, busA.PublishJSON(events.EventStayCheckedIn, events.RefreshHint{
		Entity: "stay", ID: 3, Action: "checked_in",
	}))

	// The publishing instance delivers locally.
	hint := waitForHint(t, chA)
	assert.Equal(t, "stay", hint.Entity)

	// The other instance receives it over redis.
	hint = waitForHint(t, chB)
	assert.Equal(t, "stay", hint.Entity)
	assert.Equal(t, int64(3), hint.ID)

	// The publisher must not see its own echo as a second hint.
	select {
	case extra := <-chA:
		t.Fatalf("unexpected duplicate hint: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}
