// Package pubsub carries domain events from the API process to whoever reacts to them.
package pubsub

import (
	"context"
	"log/slog"

	"tienda/config"
	"tienda/internal/domain/constants"
	"tienda/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// noopPublisher is a no-op implementation when Pub/Sub is disabled
type noopPublisher struct {
	logger *slog.Logger
}

func (p *noopPublisher) Publish(ctx context.Context, event *service.DomainEvent) error {
	p.logger.DebugContext(ctx, "[NoopPubSub] Event publishing disabled, skipping",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
	)

	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}

// PublisherParams holds dependencies for EventPublisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger

	// Handler receives events when the inprocess provider is selected
	Handler service.EventHandler `optional:"true"`
}

// NewEventPublisher creates an EventPublisher based on configuration
func NewEventPublisher(params PublisherParams) (service.EventPublisher, error) {
	cfg := params.Config.PubSub
	logger := params.Logger

	if cfg == nil || cfg.Provider == "" {
		logger.Info("PubSub not configured, using no-op publisher")

		return &noopPublisher{logger: logger}, nil
	}

	var publisher service.EventPublisher
	var err error

	switch cfg.Provider {
	case constants.PubSubProviderInProcess:
		logger.Info("Using in-process event bus")

		publisher, err = NewInProcessPublisher(params.Handler, logger)

	case constants.PubSubProviderAMQP:
		amqpCfg := params.Config.AMQP
		if amqpCfg == nil || amqpCfg.URL == "" || amqpCfg.Queue == "" {
			return nil, errors.New("amqp url and queue are required for amqp provider")
		}
		logger.Info("Using AMQP publisher", slog.String("queue", amqpCfg.Queue))

		publisher, err = NewAMQPPublisher(amqpCfg.URL, amqpCfg.Queue, logger)

	case constants.PubSubProviderGoogle:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if cfg.TopicID == "" {
			return nil, errors.New("topic ID is required for google provider")
		}
		logger.Info("Using Google Pub/Sub publisher",
			slog.String("project_id", cfg.ProjectID),
			slog.String("topic_id", cfg.TopicID),
		)

		publisher, err = NewGooglePubSubPublisher(params.Ctx, cfg.ProjectID, cfg.TopicID, logger)

	case constants.PubSubProviderWebhook:
		if cfg.WebhookEndpoint == "" {
			return nil, errors.New("webhook endpoint is required for webhook provider")
		}
		logger.Info("Using webhook publisher", slog.String("endpoint", cfg.WebhookEndpoint))

		publisher = NewWebhookPublisher(cfg.WebhookEndpoint, logger)

	default:
		return nil, errors.Errorf("unknown pubsub provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing EventPublisher")

			return publisher.Close()
		},
	})

	return publisher, nil
}

// Module provides the Pub/Sub FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewEventPublisher),
)
