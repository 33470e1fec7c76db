package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wire names of the line kinds, as the point of sale sends them in tipoVenta.
const (
	LineKindIndividual = "individual"
	LineKindSet        = "conjunto"
)

// LineKind is the closed set of ways a line can be sold: Individual or Set.
type LineKind interface {
	// Units is the number of individual stock units the line moves.
	Units() int
	// Name is the wire name of the kind.
	Name() string

	isLineKind()
}

// Individual sells Qty loose units.
type Individual struct {
	Qty int
}

// Units implements LineKind.
func (k Individual) Units() int { return k.Qty }

// Name implements LineKind.
func (Individual) Name() string { return LineKindIndividual }

func (Individual) isLineKind() {}

// Set sells SetQty bundles of UnitsPerSet units each at SetPrice per bundle.
// SetName, UnitsPerSet and SetPrice are snapshots taken when the line was written.
type Set struct {
	SetQty      int
	UnitsPerSet int
	SetName     string
	SetPrice    decimal.Decimal
}

// Units implements LineKind.
func (k Set) Units() int { return k.SetQty * k.UnitsPerSet }

// Name implements LineKind.
func (Set) Name() string { return LineKindSet }

func (Set) isLineKind() {}

// Line is one product entry of an order or sale. It owns copies of the product
// name and prices so it never has to look at the live product again.
type Line struct {
	ProductID   uuid.UUID
	ProductName string
	Kind        LineKind
	SellPrice   decimal.Decimal // unit sell price snapshot
	BuyPrice    decimal.Decimal // unit buy price snapshot
	Subtotal    decimal.Decimal
	Profit      decimal.Decimal
}

// Units is shorthand for l.Kind.Units(), zero when the kind is missing.
func (l Line) Units() int {
	if l.Kind == nil {
		return 0
	}

	return l.Kind.Units()
}
