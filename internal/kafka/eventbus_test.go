package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

type captureQueue struct {
	msgs []kafka.Message
	full bool
}

func (q *captureQueue) Publish(m kafka.Message) bool {
	if q.full {
		return false
	}
	q.msgs = append(q.msgs, m)
	return true
}

func TestEventBus_PublishKeysBySpace(t *testing.T) {
	q := &captureQueue{}
	bus := NewEventBus(q, nil)

	ev, err := parking.NewEnvelope(parking.EventCheckoutCompleted, "parking-api", "A1",
		parking.CheckoutCompletedPayload{ReservationID: "r1", SpaceNumber: "A1", Charge: 10599})
	require.NoError(t, err)
	bus.Publish(context.Background(), parking.TopicCheckoutCompleted, ev)

	require.Len(t, q.msgs, 1)
	m := q.msgs[0]
	assert.Equal(t, parking.TopicCheckoutCompleted, m.Topic)
	assert.Equal(t, []byte("A1"), m.Key)

	got, err := DecodeEnvelope(m.Value)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, got.EventID)

	payload, err := UnwrapPayload[parking.CheckoutCompletedPayload](got.Payload)
	require.NoError(t, err)
	assert.Equal(t, "r1", payload.ReservationID)
}

func TestEventBus_FullQueueDoesNotBlock(t *testing.T) {
	bus := NewEventBus(&captureQueue{full: true}, nil)
	ev, err := parking.NewEnvelope(parking.EventPaymentFailed, "parking-api", "A1", parking.PaymentFailedPayload{})
	require.NoError(t, err)
	bus.Publish(context.Background(), parking.TopicPaymentFailed, ev)
}

func TestProducer_PublishAfterClose(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, 1, nil)
	assert.True(t, p.Publish(kafka.Message{Topic: "t"}))
	assert.False(t, p.Publish(kafka.Message{Topic: "t"}), "buffer full")
	p.Close()
	p.Close()
	assert.False(t, p.Publish(kafka.Message{Topic: "t"}))
}
