package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventChannel = "livecast:events"

// Envelope wraps a room event for transport between coordinator
// instances. InstanceID lets a subscriber drop its own publishes.
type Envelope struct {
	InstanceID string       `json:"instance_id"`
	Timestamp  time.Time    `json:"timestamp"`
	Event      domain.Event `json:"event"`
}

// EventRelay republishes room events over Redis pub/sub so viewers
// connected to other coordinator instances still receive them. The
// relay carries fan-out events only; lifecycle state stays with the
// instance that owns the livestream's serialization point.
type EventRelay struct {
	client     *redis.Client
	instanceID string
	logger     *zap.SugaredLogger
	pubsub     *redis.PubSub
}

func NewEventRelay(client *redis.Client, instanceID string, logger *zap.SugaredLogger) *EventRelay {
	return &EventRelay{
		client:     client,
		instanceID: instanceID,
		logger:     logger,
	}
}

// Publish sends an event to every subscribed instance, including this
// one; the subscribe loop filters out locally originated envelopes.
func (r *EventRelay) Publish(ctx context.Context, event domain.Event) error {
	env := Envelope{
		InstanceID: r.instanceID,
		Timestamp:  time.Now(),
		Event:      event,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := r.client.Publish(ctx, eventChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe delivers remote events to handler until ctx is canceled.
func (r *EventRelay) Subscribe(ctx context.Context, handler func(domain.Event)) error {
	if r.pubsub != nil {
		return fmt.Errorf("already subscribed")
	}

	r.pubsub = r.client.Subscribe(ctx, eventChannel)
	defer r.pubsub.Close()

	ch := r.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warnw("failed to unmarshal event envelope",
					"error", err,
					"payload", msg.Payload,
				)
				continue
			}

			if env.InstanceID == r.instanceID {
				continue
			}

			handler(env.Event)
		}
	}
}

// Close closes the subscription if one is active.
func (r *EventRelay) Close() error {
	if r.pubsub != nil {
		return r.pubsub.Close()
	}
	return nil
}

// RelayBroadcaster decorates a local broadcaster with cross-instance
// delivery. Room publishes go to local members and onto the relay;
// direct sends stay local because the target connection lives here.
type RelayBroadcaster struct {
	local  ports.Broadcaster
	relay  *EventRelay
	logger *zap.SugaredLogger
}

func NewRelayBroadcaster(local ports.Broadcaster, relay *EventRelay, logger *zap.SugaredLogger) *RelayBroadcaster {
	return &RelayBroadcaster{
		local:  local,
		relay:  relay,
		logger: logger,
	}
}

func (b *RelayBroadcaster) Publish(livestreamID domain.LivestreamID, event domain.Event) {
	b.local.Publish(livestreamID, event)

	// Relay delivery is best-effort, same as local fan-out: a Redis
	// hiccup never surfaces to the caller that produced the event.
	if err := b.relay.Publish(context.Background(), event); err != nil {
		b.logger.Warnw("event relay publish failed",
			"livestream_id", livestreamID,
			"event_type", event.Type,
			"error", err,
		)
	}
}

func (b *RelayBroadcaster) PublishToOne(conn domain.Connection, event domain.Event) {
	b.local.PublishToOne(conn, event)
}

// Run consumes remote events and fans them out to local members. It
// returns when ctx is canceled.
func (b *RelayBroadcaster) Run(ctx context.Context) error {
	return b.relay.Subscribe(ctx, func(event domain.Event) {
		b.local.Publish(event.LivestreamID, event)
	})
}
