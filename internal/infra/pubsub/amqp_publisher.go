package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"tienda/internal/domain/service"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpPublisher sends persistent messages to a durable queue through the default exchange.
// The connection is shared and redialed when the broker drops it; each publish uses its own channel.
type amqpPublisher struct {
	url    string
	queue  string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewAMQPPublisher dials the broker and declares the queue.
func NewAMQPPublisher(url, queue string, logger *slog.Logger) (service.EventPublisher, error) {
	p := &amqpPublisher{url: url, queue: queue, logger: logger}

	conn, err := p.connection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq: channel open failed")
	}
	defer ch.Close()

	if err := DeclareQueue(ch, queue); err != nil {
		return nil, err
	}

	return p, nil
}

// DeclareQueue declares the durable event queue. Publisher and consumer both call it.
func DeclareQueue(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "rabbitmq: queue declare %s failed", queue)
	}

	return nil
}

func (p *amqpPublisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, errors.Wrap(err, "rabbitmq: dial failed")
	}
	p.conn = conn

	return conn, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, event *service.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	conn, err := p.connection()
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "rabbitmq: channel open failed")
	}
	defer ch.Close()

	headers := amqp.Table{}
	for key, value := range event.Attributes() {
		headers[key] = value
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return errors.Wrap(err, "rabbitmq: publish failed")
	}

	p.logger.Debug("[AMQP] Event published",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
		slog.String("queue", p.queue),
	)

	return nil
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}

	return errors.WithStack(p.conn.Close())
}
