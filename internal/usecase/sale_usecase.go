package usecase

import (
	"context"
	"io"
	"time"

	"tienda/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleLineInput is a line as the point of sale builds it. For a set line
// SetQty is the number of sets and Quantity the units they contain.
type SaleLineInput struct {
	ProductID   uuid.UUID
	ProductName string
	Kind        string
	Quantity    int
	SetQty      int
	UnitsPerSet int
	SetName     string
	SetPrice    decimal.Decimal
	SellPrice   decimal.Decimal
	BuyPrice    decimal.Decimal
	Subtotal    decimal.Decimal
	Profit      decimal.Decimal
}

// RecordSaleInput is a sale document sent by the cashier.
type RecordSaleInput struct {
	CashierID     uuid.UUID
	CustomerName  string
	CustomerPhone string
	PaymentMethod string
	Channel       entity.SaleChannel
	SoldAt        time.Time
	Lines         []SaleLineInput
	Total         decimal.Decimal
	TotalProfit   decimal.Decimal
}

// SaleUsecase defines the point of sale operations.
type SaleUsecase interface {
	// Record decrements stock for every line and stores the sale.
	Record(ctx context.Context, input RecordSaleInput) (*entity.Sale, error)

	// List returns every sale, newest first.
	List(ctx context.Context) ([]*entity.Sale, error)

	ExportXLSX(ctx context.Context, w io.Writer) error
}
