package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/bloodbank/internal/logging"
)

// Publisher sends a domain event to the queue named by routingKey.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// AMQPPublisher publishes JSON events to RabbitMQ.  Each call dials,
// declares the durable queue and publishes a persistent message; errors
// are logged and returned so callers can ignore them.
type AMQPPublisher struct {
	url string
	log logging.Logger
}

func NewAMQPPublisher(url string, log logging.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log}
}

// NewPublisher returns an AMQPPublisher, or a NopPublisher when url is empty.
func NewPublisher(url string, log logging.Logger) Publisher {
	if url == "" {
		return NopPublisher{}
	}
	return NewAMQPPublisher(url, log)
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error(ctx, "rabbitmq: marshal event failed", "queue", routingKey, "err", err)
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn(ctx, "rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn(ctx, "rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
		p.log.Warn(ctx, "rabbitmq: queue declare failed", "queue", routingKey, "err", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", routingKey, false, false, pub); err != nil {
		p.log.Warn(ctx, "rabbitmq: publish failed", "queue", routingKey, "err", err)
		return err
	}
	return nil
}
