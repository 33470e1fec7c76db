// Package queue consumes domain events from RabbitMQ in the worker process.
package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"tienda/config"
	"tienda/internal/delivery"
	deliverycontext "tienda/internal/delivery/context"
	"tienda/internal/domain/lifecycle"
	"tienda/internal/domain/service"
	"tienda/internal/infra/pubsub"
	"tienda/internal/usecase"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
)

const (
	defaultPrefetch = 50
	initialBackoff  = time.Second
	maxBackoff      = 30 * time.Second
	consumerTag     = "tienda-worker"
)

// ConsumerParams holds dependencies for the AMQP consumer
type ConsumerParams struct {
	fx.In

	Lc             fx.Lifecycle
	Cfg            *config.Config
	Logger         *slog.Logger
	NotificationUC usecase.NotificationUsecase
}

type consumer struct {
	url      string
	queue    string
	prefetch int
	logger   *slog.Logger
	handler  service.EventHandler

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewConsumer returns the queue delivery. Without amqp settings Serve returns at once.
func NewConsumer(params ConsumerParams) delivery.Delivery {
	c := &consumer{
		prefetch: defaultPrefetch,
		logger:   params.Logger,
		handler:  params.NotificationUC,
		done:     make(chan struct{}),
	}
	if cfg := params.Cfg.AMQP; cfg != nil {
		c.url = cfg.URL
		c.queue = cfg.Queue
		if cfg.Prefetch > 0 {
			c.prefetch = cfg.Prefetch
		}
	}

	params.Lc.Append(fx.Hook{
		OnStop: c.stop,
	})

	return c
}

// Serve dials the broker and consumes until stopped, redialing with
// exponential backoff whenever the connection drops.
func (c *consumer) Serve(ctx context.Context) error {
	defer close(c.done)

	if c.url == "" || c.queue == "" {
		c.logger.Info("AMQP not configured, queue consumer disabled")

		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	c.logger.Info("Starting AMQP consumer", slog.String("queue", c.queue), slog.Int("prefetch", c.prefetch))

	backoff := initialBackoff
	for ctx.Err() == nil {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("[AMQP] Dial failed, retrying",
				slog.Duration("backoff", backoff),
				slog.Any("error", err),
			)
			if !sleep(ctx, backoff) {
				break
			}
			backoff = min(backoff*2, maxBackoff)

			continue
		}
		backoff = initialBackoff

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			break
		}
		c.logger.Warn("[AMQP] Consume loop ended, reconnecting", slog.Any("error", err))
		if !sleep(ctx, initialBackoff) {
			break
		}
	}

	return nil
}

func (c *consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "rabbitmq: channel open failed")
	}
	defer ch.Close()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return errors.Wrap(err, "rabbitmq: qos failed")
	}
	if err := pubsub.DeclareQueue(ch, c.queue); err != nil {
		return err
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "rabbitmq: consume failed")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq: deliveries channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

// handle acks what was handled or can never succeed. A retryable failure is
// requeued once; a second failure is dropped so it cannot loop.
func (c *consumer) handle(ctx context.Context, d amqp.Delivery) {
	var event service.DomainEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		c.logger.Error("[AMQP] Dropping undecodable message",
			slog.String("message_id", d.MessageId),
			slog.Any("error", err),
		)
		_ = d.Nack(false, false)

		return
	}

	requestID, _ := d.Headers["request_id"].(string)
	if requestID == "" {
		requestID = event.RequestID
	}
	ctx = deliverycontext.WithEventScope(ctx, c.logger, requestID)
	logger := deliverycontext.GetLoggerOrDefault(ctx, c.logger)

	err := c.handler.HandleEvent(ctx, &event)
	if err == nil {
		_ = d.Ack(false)

		return
	}

	requeue := usecase.IsRetryable(err) && !d.Redelivered
	logger.Error("[AMQP] Failed to process event",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
		slog.Bool("requeue", requeue),
		slog.Any("error", err),
	)
	_ = d.Nack(false, requeue)
}

func (c *consumer) stop(ctx context.Context) error {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	waitCtx, done := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer done()

	select {
	case <-c.done:
		c.logger.Info("AMQP consumer stopped")

		return nil
	case <-waitCtx.Done():
		return errors.Wrap(waitCtx.Err(), "amqp consumer did not stop in time")
	}
}

// sleep waits d or until ctx ends, reporting whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
