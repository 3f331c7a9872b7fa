package events

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AllEventTypes lists every routing key the library publishes
var AllEventTypes = []string{
	EventTypeCatalogCreated,
	EventTypeCatalogUpdated,
	EventTypeCatalogDeleted,
	EventTypeRentRequested,
	EventTypeRentReviewed,
}

// Handler processes one decoded event. A non-nil error requeues the message.
type Handler func(ctx context.Context, event Event) error

// Consumer reads library events from a queue bound to the exchange
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	handler Handler
	log     *zap.Logger
}

// NewConsumer connects and declares the exchange. queue names a durable
// queue; an empty name gets an exclusive server-named queue.
func NewConsumer(url, queue string, handler Handler, log *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, exchangeType, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Info("Consumer connected to RabbitMQ", zap.String("exchange", ExchangeName))

	return &Consumer{
		conn:    conn,
		channel: ch,
		queue:   queue,
		handler: handler,
		log:     log,
	}, nil
}

// Start binds the queue to keys and consumes until ctx is done or the
// channel closes.
func (c *Consumer) Start(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		keys = AllEventTypes
	}

	durable := c.queue != ""
	queue, err := c.channel.QueueDeclare(
		c.queue,
		durable,  // durable
		!durable, // delete when unused
		!durable, // exclusive
		false,    // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range keys {
		if err := c.channel.QueueBind(queue.Name, key, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
		c.log.Info("Listening for events", zap.String("routing_key", key))
	}

	msgs, err := c.channel.Consume(queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Warn("Failed to decode event", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		msg.Nack(false, false)
		return
	}
	if event.EventType == "" {
		event.EventType = msg.RoutingKey
	}

	if err := c.handler(ctx, event); err != nil {
		c.log.Error("Failed to handle event",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

// Close closes the channel and connection
func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
