package repository

import (
	"context"
	"errors"

	"tienda/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrOrderNotFound is returned when no order has the requested id.
var ErrOrderNotFound = errors.New("order not found")

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status entity.OrderStatus
	Offset int
	Limit  int
}

// OrderRepository persists orders with their embedded lines.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)

	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error)

	// List returns a page of orders, newest first, and the total count.
	List(ctx context.Context, filter OrderFilter) ([]*entity.Order, int64, error)

	// UpdateStatus moves the order to status only if its version still equals
	// expectedVersion, else ErrVersionConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus, expectedVersion int64) error
}
