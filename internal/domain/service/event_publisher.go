package service

import (
	"context"
	"time"
)

// Domain event types.
const (
	EventOrderConfirmed     = "pedido.confirmado"
	EventOrderStatusChanged = "pedido.estado_actualizado"
	EventOrderCancelled     = "pedido.cancelado"
	EventSaleRecorded       = "venta.registrada"
)

// DomainEvent is the envelope every publisher carries. Money travels as
// decimal strings so consumers never round.
type DomainEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	RequestID     string    `json:"request_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	OrderID       string    `json:"order_id,omitempty"`
	OrderNumber   int64     `json:"order_number,omitempty"`
	SaleID        string    `json:"sale_id,omitempty"`
	SaleNumber    int64     `json:"sale_number,omitempty"`
	Status        string    `json:"status,omitempty"`
	PrevStatus    string    `json:"prev_status,omitempty"`
	CustomerName  string    `json:"customer_name,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Total         string    `json:"total,omitempty"`
	TotalProfit   string    `json:"total_profit,omitempty"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// Publish hands the event to the configured transport.
	Publish(ctx context.Context, event *DomainEvent) error

	// Close releases any resources held by the publisher
	Close() error
}

// EventHandler consumes published events, whatever transport delivered them.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *DomainEvent) error
}

// Attributes returns the routing attributes transports attach next to the payload.
func (e *DomainEvent) Attributes() map[string]string {
	attributes := map[string]string{
		"event_id":   e.ID,
		"event_type": e.Type,
	}
	if e.OrderID != "" {
		attributes["order_id"] = e.OrderID
	}
	if e.SaleID != "" {
		attributes["sale_id"] = e.SaleID
	}
	if e.RequestID != "" {
		attributes["request_id"] = e.RequestID
	}

	return attributes
}
