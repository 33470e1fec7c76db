package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRecord is the flat JSON shape of an order or sale line.
// Kind selects which of Qty or SetQty/UnitsPerSet is meaningful.
type LineRecord struct {
	ProductID   uuid.UUID       `json:"productoId"`
	ProductName string          `json:"nombre"`
	Kind        string          `json:"tipo"`
	Qty         int             `json:"cantidad,omitempty"`
	SetQty      int             `json:"cantidadConjuntos,omitempty"`
	UnitsPerSet int             `json:"unidadesPorConjunto,omitempty"`
	SetName     string          `json:"nombreConjunto,omitempty"`
	SetPrice    decimal.Decimal `json:"precioConjunto"`
	SellPrice   decimal.Decimal `json:"precioVenta"`
	BuyPrice    decimal.Decimal `json:"precioCompra"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Profit      decimal.Decimal `json:"ganancia"`
}
