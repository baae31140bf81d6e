package rabbit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sarawakparks/park-reservations/internal/observability"
)

const Exchange = "parks.events"

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, key string, msg amqp.Publishing) error {
	return p.ch.PublishWithContext(ctx, Exchange, key, false, false, msg)
}

// EventBus adapts the publisher to the fire-and-forget contract the
// reservation engine expects: payloads are serialized to JSON and
// publish failures are logged, never returned.
type EventBus struct {
	pub    *Publisher
	logger observability.Logger
}

func NewEventBus(pub *Publisher, logger observability.Logger) *EventBus {
	return &EventBus{pub: pub, logger: logger}
}

func (b *EventBus) Publish(ctx context.Context, routingKey string, payload map[string]interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		b.logger.WithField("event", routingKey).Error("failed to marshal event", err)
		return
	}
	msg := amqp.Publishing{
		MessageId:   uuid.New().String(),
		ContentType: "application/json",
		Body:        body,
	}
	if err := b.pub.Publish(ctx, routingKey, msg); err != nil {
		b.logger.WithField("event", routingKey).Error("failed to publish event", err)
	}
}
