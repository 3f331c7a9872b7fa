package events

import (
	"context"
	"errors"
	"testing"

	"github.com/pagevault/library/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAck struct {
	acked    int
	nacked   int
	requeued bool
}

func (r *recordingAck) Ack(tag uint64, multiple bool) error {
	r.acked++
	return nil
}

func (r *recordingAck) Nack(tag uint64, multiple, requeue bool) error {
	r.nacked++
	r.requeued = requeue
	return nil
}

func (r *recordingAck) Reject(tag uint64, requeue bool) error {
	return r.Nack(tag, false, requeue)
}

func delivery(t *testing.T, ack amqp.Acknowledger, routingKey string, event Event) amqp.Delivery {
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, RoutingKey: routingKey, Body: body}
}

func TestConsumerAcksHandledEvents(t *testing.T) {
	var got Event
	c := &Consumer{
		handler: func(ctx context.Context, event Event) error {
			got = event
			return nil
		},
		log: logger.NewLogger("test", "info"),
	}

	ack := &recordingAck{}
	sent := NewEvent(WithCorrelationID(context.Background(), "req-1"), EventTypeRentReviewed, map[string]interface{}{"id": "r1"})
	c.handleMessage(context.Background(), delivery(t, ack, EventTypeRentReviewed, sent))

	assert.Equal(t, 1, ack.acked)
	assert.Zero(t, ack.nacked)
	assert.Equal(t, sent.EventID, got.EventID)
	assert.Equal(t, "req-1", got.CorrelationID)
	assert.Equal(t, "r1", got.Payload["id"])
}

func TestConsumerRequeuesFailedEvents(t *testing.T) {
	c := &Consumer{
		handler: func(ctx context.Context, event Event) error {
			return errors.New("downstream unavailable")
		},
		log: logger.NewLogger("test", "info"),
	}

	ack := &recordingAck{}
	c.handleMessage(context.Background(), delivery(t, ack, EventTypeCatalogCreated, NewEvent(context.Background(), EventTypeCatalogCreated, nil)))

	assert.Zero(t, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeued)
}

func TestConsumerDropsUndecodableEvents(t *testing.T) {
	called := false
	c := &Consumer{
		handler: func(ctx context.Context, event Event) error {
			called = true
			return nil
		},
		log: logger.NewLogger("test", "info"),
	}

	ack := &recordingAck{}
	c.handleMessage(context.Background(), amqp.Delivery{Acknowledger: ack, RoutingKey: "catalog.created", Body: []byte("{not json")})

	assert.False(t, called)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeued)
}
