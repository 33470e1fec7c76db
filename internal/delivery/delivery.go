// Package delivery holds the process entry surfaces: the API server, the
// worker push endpoint and the queue consumer.
package delivery

import "context"

// Delivery is something main starts and fx stops.
type Delivery interface {
	// Serve blocks until the delivery stops or fails.
	Serve(ctx context.Context) error
}
