package repository

import (
	"context"
	"errors"

	"tienda/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrProductNotFound is returned when no product has the requested id.
	ErrProductNotFound = errors.New("product not found")

	// ErrStockGuardFailed is returned by a guarded decrement when stock is
	// lower than the requested quantity at write time.
	ErrStockGuardFailed = errors.New("stock guard failed")

	// ErrVersionConflict is returned when an optimistic version check fails.
	ErrVersionConflict = errors.New("version conflict")
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category string
	Search   string
	Offset   int
	Limit    int
}

// ProductRepository persists the catalog. Stock moves only through the
// delta methods so every writer goes through the same concurrency control.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, int64, error)
	Create(ctx context.Context, product *entity.Product) error

	// Update writes every editable field. When expectedVersion is positive the
	// write only happens if the stored version matches, else ErrVersionConflict.
	Update(ctx context.Context, product *entity.Product, expectedVersion int64) error

	Delete(ctx context.Context, id uuid.UUID) error

	// DecrementStockGuarded subtracts qty only if stock >= qty at write time
	// (compare-and-swap). A failed guard yields ErrStockGuardFailed.
	DecrementStockGuarded(ctx context.Context, id uuid.UUID, qty int) error

	// AdjustStock adds delta without any guard. Negative results are possible.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}
