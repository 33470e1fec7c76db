package usecase

import (
	"context"
	"io"

	"tienda/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Input DTOs ---

// ProductInput carries every editable product field. Prices are nullable so
// an omitted price is told apart from an explicit zero.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	BuyPrice    decimal.NullDecimal
	SellPrice   decimal.NullDecimal
	Stock       int
	HasSet      bool
	SetName     string
	UnitsPerSet int
	SetPrice    decimal.NullDecimal
}

// UpdateProductInput replaces a product. A positive Version must match the stored one.
type UpdateProductInput struct {
	ProductInput
	Version int64
}

// ListProductsInput filters the public catalog.
type ListProductsInput struct {
	Category string
	Search   string
	PageRequest
}

// StockCheckInput asks whether Quantity units or sets of a product can be sold.
type StockCheckInput struct {
	ProductID uuid.UUID
	Quantity  int
	Kind      string // entity.LineKindIndividual or entity.LineKindSet
}

// UploadImageInput is a product image as received from the client.
type UploadImageInput struct {
	ProductID   uuid.UUID
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// --- Output DTOs ---

// ProductPage is one page of the catalog.
type ProductPage struct {
	Products   []*entity.Product
	Pagination Pagination
}

// StockCheckOutput answers a stock check.
type StockCheckOutput struct {
	Available     bool
	Message       string
	UnitStock     int
	SetsAvailable int
}

// ProductImage is an opened product image. The caller closes Body.
type ProductImage struct {
	Body        io.ReadCloser
	ContentType string
}

// ProductUsecase defines the catalog operations.
type ProductUsecase interface {
	List(ctx context.Context, input ListProductsInput) (*ProductPage, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	Create(ctx context.Context, input ProductInput) (*entity.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*entity.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadImage(ctx context.Context, input UploadImageInput) (*entity.Product, error)
	OpenImage(ctx context.Context, id uuid.UUID) (*ProductImage, error)
	CheckStock(ctx context.Context, input StockCheckInput) (*StockCheckOutput, error)
}
