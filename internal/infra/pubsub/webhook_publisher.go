package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"tienda/internal/domain/service"

	"github.com/pkg/errors"
)

const webhookTimeout = 30 * time.Second

// webhookPublisher POSTs push envelopes straight to the worker, standing in for Pub/Sub during development.
type webhookPublisher struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookPublisher creates a publisher that delivers to endpoint synchronously.
func NewWebhookPublisher(endpoint string, logger *slog.Logger) service.EventPublisher {
	return &webhookPublisher{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: webhookTimeout},
		logger:     logger,
	}
}

func (p *webhookPublisher) Publish(ctx context.Context, event *service.DomainEvent) error {
	envelope, err := NewPushEnvelope(event, time.Now())
	if err != nil {
		return err
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RequestID != "" {
		req.Header.Set("X-Request-Id", event.RequestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("worker returned non-success status: %d", resp.StatusCode)
	}

	p.logger.Debug("[Webhook] Event delivered",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
	)

	return nil
}

func (p *webhookPublisher) Close() error {
	p.httpClient.CloseIdleConnections()

	return nil
}
