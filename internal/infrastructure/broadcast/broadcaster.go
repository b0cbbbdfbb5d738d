package broadcast

import (
	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
	"livecast/internal/infrastructure/monitoring"

	"go.uber.org/zap"
)

// Broadcaster fans events out over the membership registry's snapshot
// at publish time. Delivery is best-effort, at-most-once per connection
// per event: a connection that cannot take the event right now simply
// misses it. Runs outside the coordinator's serialization point so a
// stalled connection never blocks a mutation.
type Broadcaster struct {
	registry ports.MembershipRegistry
	metrics  *monitoring.PrometheusCollector
	logger   *zap.SugaredLogger
}

func NewBroadcaster(registry ports.MembershipRegistry, metrics *monitoring.PrometheusCollector, logger *zap.SugaredLogger) ports.Broadcaster {
	return &Broadcaster{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

func (b *Broadcaster) Publish(livestreamID domain.LivestreamID, event domain.Event) {
	conns := b.registry.ListConnections(livestreamID)
	if b.metrics != nil {
		b.metrics.RecordEventPublished(len(conns))
	}

	for _, conn := range conns {
		if err := conn.Send(event); err != nil {
			// Never surfaced to the sender: a durably appended comment
			// is sent regardless of any one viewer's delivery outcome.
			if b.metrics != nil {
				b.metrics.RecordDeliveryDrop()
			}
			b.logger.Debugw("event delivery dropped",
				"livestream_id", livestreamID,
				"event_type", event.Type,
				"error", err,
			)
		}
	}
}

func (b *Broadcaster) PublishToOne(conn domain.Connection, event domain.Event) {
	if conn == nil {
		return
	}
	if err := conn.Send(event); err != nil {
		if b.metrics != nil {
			b.metrics.RecordDeliveryDrop()
		}
		b.logger.Debugw("targeted delivery dropped",
			"event_type", event.Type,
			"error", err,
		)
	}
}
