package service

import "context"

// OrderMail is what the order status mail shows.
type OrderMail struct {
	OrderID     string
	OrderNumber int64
	Status      string
	Total       string
}

// Mailer sends the store's transactional mail. Implementations may deliver
// asynchronously; a nil error means the message was accepted for delivery,
// unless the context asks to wait for delivery.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, token string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
	SendWelcome(ctx context.Context, to, name string) error
	SendOrderStatus(ctx context.Context, to, name string, order OrderMail) error
}

type deliveryWaitKey struct{}

// WithDeliveryWait marks ctx so mail sent under it is delivered before the
// call returns and delivery errors reach the caller. Event consumers use it
// so a failed send can be retried by the transport.
func WithDeliveryWait(ctx context.Context) context.Context {
	return context.WithValue(ctx, deliveryWaitKey{}, true)
}

// WaitsForDelivery reports whether ctx was marked by WithDeliveryWait.
func WaitsForDelivery(ctx context.Context) bool {
	wait, _ := ctx.Value(deliveryWaitKey{}).(bool)

	return wait
}
