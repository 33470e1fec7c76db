// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "tienda/internal/delivery/context"
	"tienda/internal/domain/entity"
	"tienda/internal/domain/service"

	"github.com/google/uuid"
)

// eventEmitter publishes domain events after a commit. Publishing never fails
// the operation that produced the event; failures are only logged.
type eventEmitter struct {
	publisher service.EventPublisher
	now       func() time.Time
}

func (e eventEmitter) emit(ctx context.Context, logger *slog.Logger, event *service.DomainEvent) {
	if e.publisher == nil {
		return
	}

	event.ID = uuid.NewString()
	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)
	event.OccurredAt = e.now().UTC()

	if err := e.publisher.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish event",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID),
			slog.Any("error", err),
		)
	}
}

func orderEvent(eventType string, order *entity.Order, prevStatus entity.OrderStatus) *service.DomainEvent {
	return &service.DomainEvent{
		Type:          eventType,
		OrderID:       order.ID.String(),
		OrderNumber:   order.Number,
		Status:        string(order.Status),
		PrevStatus:    string(prevStatus),
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total.StringFixed(2),
		TotalProfit:   order.TotalProfit.StringFixed(2),
	}
}

func saleEvent(sale *entity.Sale) *service.DomainEvent {
	return &service.DomainEvent{
		Type:         service.EventSaleRecorded,
		SaleID:       sale.ID.String(),
		SaleNumber:   sale.Number,
		CustomerName: sale.CustomerName,
		Total:        sale.Total.StringFixed(2),
		TotalProfit:  sale.TotalProfit.StringFixed(2),
	}
}
