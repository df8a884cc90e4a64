package notify

import (
	"context"
	"encoding/json"
	"sync"

	"innkeep/internal/events"
	"innkeep/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Hub is the refresh-hint relay. It listens on the in-process event
// bus and fans hints out to local stream subscribers and, when redis
// is configured, to a pub/sub channel so other instances' subscribers
// see them too. Delivery is best-effort and unordered: a full client
// buffer drops the hint, a redis outage drops the remote leg. Clients
// must treat hints purely as "go refetch" signals.
type Hub struct {
	redis      *redis.Client
	channel    string
	instanceID string
	log        zerolog.Logger

	mu      sync.Mutex
	clients map[chan events.RefreshHint]struct{}
}

// envelope wraps a hint with its origin so an instance can skip its
// own redis echoes.
type envelope struct {
	Origin string             `json:"origin"`
	Hint   events.RefreshHint `json:"hint"`
}

func NewHub(bus *events.EventBus, redisClient *redis.Client, channel string, logger *zerolog.Logger) *Hub {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "notify").Logger()
	}

	h := &Hub{
		redis:      redisClient,
		channel:    channel,
		instanceID: uuid.NewString(),
		log:        log,
		clients:    make(map[chan events.RefreshHint]struct{}),
	}

	if bus != nil {
		bus.SubscribeAll(func(event *events.Event) error {
			var hint events.RefreshHint
			if err := json.Unmarshal(event.Payload, &hint); err != nil {
				h.log.Error().Err(err).Str("event_type", event.Type).Msg("malformed hint payload")
				return err
			}
			metrics.IncHintPublished()
			h.deliver(hint)
			h.publishRemote(hint)
			return nil
		})
	}

	return h
}

// Subscribe registers a stream client. The returned cancel func must be
// called when the client disconnects.
func (h *Hub) Subscribe() (<-chan events.RefreshHint, func()) {
	ch := make(chan events.RefreshHint, 16)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Run consumes the redis channel until the context is cancelled. It is
// a no-op when redis is not configured.
func (h *Hub) Run(ctx context.Context) {
	if h.redis == nil {
		return
	}

	sub := h.redis.Subscribe(ctx, h.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.log.Warn().Err(err).Msg("malformed remote hint")
				continue
			}
			if env.Origin == h.instanceID {
				continue
			}
			h.deliver(env.Hint)
		}
	}
}

func (h *Hub) deliver(hint events.RefreshHint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- hint:
		default:
			// Slow client; the hint is only a refetch nudge, drop it.
		}
	}
}

func (h *Hub) publishRemote(hint events.RefreshHint) {
	if h.redis == nil {
		return
	}

	data, err := json.Marshal(envelope{Origin: h.instanceID, Hint: hint})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to marshal hint envelope")
		return
	}
	if err := h.redis.Publish(context.Background(), h.channel, data).Err(); err != nil {
		h.log.Warn().Err(err).Msg("redis publish failed, local delivery only")
	}
}
