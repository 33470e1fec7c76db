package pubsub

import (
	"context"
	"log/slog"

	"tienda/internal/domain/lifecycle"
	"tienda/internal/domain/service"

	"github.com/asaskevich/EventBus"
)

const inProcessTopic = "tienda:events"

// inProcessPublisher dispatches events on an in-memory bus to a handler in the same process.
// Handlers run asynchronously so a slow mail server never holds up a checkout.
type inProcessPublisher struct {
	bus    EventBus.Bus
	logger *slog.Logger
}

// NewInProcessPublisher subscribes handler to the bus. A nil handler only logs events.
func NewInProcessPublisher(handler service.EventHandler, logger *slog.Logger) (service.EventPublisher, error) {
	bus := EventBus.New()

	dispatch := func(event *service.DomainEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
		defer cancel()

		if handler == nil {
			logger.DebugContext(ctx, "[InProcess] No handler registered",
				slog.String("event_type", event.Type),
			)

			return
		}
		if err := handler.HandleEvent(ctx, event); err != nil {
			logger.ErrorContext(ctx, "[InProcess] Event handler failed",
				slog.String("event_id", event.ID),
				slog.String("event_type", event.Type),
				slog.Any("error", err),
			)
		}
	}

	// transactional=true serializes handler runs, preserving publish order
	if err := bus.SubscribeAsync(inProcessTopic, dispatch, true); err != nil {
		return nil, err
	}

	return &inProcessPublisher{bus: bus, logger: logger}, nil
}

func (p *inProcessPublisher) Publish(_ context.Context, event *service.DomainEvent) error {
	p.bus.Publish(inProcessTopic, event)

	return nil
}

// Close waits for queued handlers to finish.
func (p *inProcessPublisher) Close() error {
	p.bus.WaitAsync()

	return nil
}
