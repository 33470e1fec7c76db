package usecase

import (
	"context"
	"io"

	"tienda/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CartItem is one entry of the customer's cart.
type CartItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// CheckoutInput turns a cart into an order for UserID.
type CheckoutInput struct {
	UserID uuid.UUID
	Items  []CartItem
}

// ListOrdersInput filters the admin order listing. An empty Status lists every order.
type ListOrdersInput struct {
	Status entity.OrderStatus
	PageRequest
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Roles  entity.Roles
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Roles.Contains(entity.RoleAdmin)
}

// --- Output DTOs ---

// OrderPage is one page of the admin order listing.
type OrderPage struct {
	Orders     []*entity.Order
	Pagination Pagination
}

// OrderUsecase defines online checkout and the order lifecycle.
type OrderUsecase interface {
	// Checkout validates every cart line, decrements stock and stores a confirmed order.
	Checkout(ctx context.Context, input CheckoutInput) (*entity.Order, error)

	// ListMine returns the user's orders, newest first.
	ListMine(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error)

	List(ctx context.Context, input ListOrdersInput) (*OrderPage, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Order, error)

	// UpdateStatus is the admin transition. Moving into cancelado gives stock back.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) (*entity.Order, error)

	// CancelByCustomer cancels an order the user owns unless it is delivered or cancelled.
	CancelByCustomer(ctx context.Context, userID, id uuid.UUID) (*entity.Order, error)

	PickupQR(ctx context.Context, actor Actor, id uuid.UUID) ([]byte, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}
