package repository

import (
	"context"

	"tienda/internal/domain/entity"
)

// SaleRepository persists point of sale transactions. Sales are never updated.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error

	// List returns every sale, newest first.
	List(ctx context.Context) ([]*entity.Sale, error)
}
