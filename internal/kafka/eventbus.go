package kafka

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

// Enqueuer is satisfied by *Producer.
type Enqueuer interface {
	Publish(m kafka.Message) bool
}

// EventBus publishes parking events, keyed by space so one space's events
// stay ordered.
type EventBus struct {
	q   Enqueuer
	log *slog.Logger
}

var _ parking.Publisher = (*EventBus)(nil)

func NewEventBus(q Enqueuer, log *slog.Logger) *EventBus {
	if log == nil {
		log = slog.Default()
	}
	return &EventBus{q: q, log: log}
}

func (b *EventBus) Publish(ctx context.Context, topic string, ev parking.Envelope) {
	m := kafka.Message{
		Topic: topic,
		Key:   parking.PartitionKey(ev.CorrelationID),
		Value: MustMarshal(ev),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.EventType)},
			{Key: "event_id", Value: []byte(ev.EventID)},
		},
	}
	if !b.q.Publish(m) {
		b.log.WarnContext(ctx, "event dropped", "topic", topic, "event_type", ev.EventType, "event_id", ev.EventID)
	}
}
