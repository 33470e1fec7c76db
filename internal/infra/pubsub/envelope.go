package pubsub

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"tienda/internal/domain/service"

	"github.com/pkg/errors"
)

// PushEnvelope mirrors the body Google Pub/Sub POSTs to push subscriptions.
// The webhook provider produces the same shape so one worker endpoint serves both.
type PushEnvelope struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

const webhookSubscription = "projects/local/subscriptions/tienda-events"

// NewPushEnvelope wraps an event the way a push subscription would deliver it.
func NewPushEnvelope(event *service.DomainEvent, publishedAt time.Time) (*PushEnvelope, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	envelope := &PushEnvelope{Subscription: webhookSubscription}
	envelope.Message.Data = base64.StdEncoding.EncodeToString(data)
	envelope.Message.Attributes = event.Attributes()
	envelope.Message.MessageID = event.ID
	envelope.Message.PublishTime = publishedAt.UTC().Format(time.RFC3339)

	return envelope, nil
}

// Event decodes the base64 payload back into a DomainEvent.
func (e *PushEnvelope) Event() (*service.DomainEvent, error) {
	data, err := base64.StdEncoding.DecodeString(e.Message.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode message data")
	}

	var event service.DomainEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, errors.Wrap(err, "failed to parse domain event")
	}

	return &event, nil
}
