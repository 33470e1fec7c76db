package impl

import (
	"context"
	"log/slog"

	deliverycontext "tienda/internal/delivery/context"
	"tienda/internal/domain/service"
	"tienda/internal/usecase"

	"github.com/pkg/errors"
)

// notificationService turns domain events into customer mail. It is the
// handler behind every event transport, in process or from the worker.
type notificationService struct {
	mailer service.Mailer
	logger *slog.Logger
}

// NewNotificationService creates a new notification service instance
func NewNotificationService(mailer service.Mailer, logger *slog.Logger) usecase.NotificationUsecase {
	return &notificationService{
		mailer: mailer,
		logger: logger,
	}
}

// HandleEvent reacts to one event. Unknown event types are acknowledged and
// ignored; mail that could not be queued or delivered is reported as retryable.
func (s *notificationService) HandleEvent(ctx context.Context, event *service.DomainEvent) error {
	if event == nil {
		return errors.New("nil event")
	}
	logger := deliverycontext.GetLoggerOrDefault(ctx, s.logger).With(
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
	)

	switch event.Type {
	case service.EventOrderConfirmed, service.EventOrderStatusChanged, service.EventOrderCancelled:
		if event.CustomerEmail == "" {
			logger.Warn("Order event without customer email, skipping mail", slog.String("order_id", event.OrderID))

			return nil
		}

		err := s.mailer.SendOrderStatus(ctx, event.CustomerEmail, event.CustomerName, service.OrderMail{
			OrderID:     event.OrderID,
			OrderNumber: event.OrderNumber,
			Status:      event.Status,
			Total:       event.Total,
		})
		if err != nil {
			return usecase.Retryable(errors.Wrap(err, "failed to send order status mail"))
		}

		logger.Info("Order status mail sent",
			slog.String("order_id", event.OrderID),
			slog.String("status", event.Status),
		)

		return nil

	case service.EventSaleRecorded:
		logger.Info("Sale recorded",
			slog.String("sale_id", event.SaleID),
			slog.Int64("sale_number", event.SaleNumber),
			slog.String("total", event.Total),
		)

		return nil

	default:
		logger.Warn("Ignoring unknown event type")

		return nil
	}
}
