package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item. Stock is always counted in individual units;
// sets are a second way of selling the same units.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	BuyPrice    decimal.Decimal
	SellPrice   decimal.Decimal
	Category    string
	Stock       int
	ImageKey    string
	Set         *SetConfig // nil when the product is sold by unit only
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SetConfig describes how a product is bundled when sold as a set.
type SetConfig struct {
	Name        string
	UnitsPerSet int
	Price       decimal.Decimal
}

// HasSet reports whether the product can be sold as a set.
func (p *Product) HasSet() bool {
	return p.Set != nil
}

// UnitsPerSet returns the bundle size, or 0 for unit-only products.
func (p *Product) UnitsPerSet() int {
	if p.Set == nil {
		return 0
	}

	return p.Set.UnitsPerSet
}

// SetsAvailable is derived from stock on every call and never stored.
func (p *Product) SetsAvailable() int {
	return SetsAvailable(p.Stock, p.UnitsPerSet())
}

// CanSellUnits reports whether qty loose units can be taken from stock.
func (p *Product) CanSellUnits(qty int) bool {
	return CanSellUnits(p.Stock, qty)
}

// CanSellSets reports whether setQty bundles can be taken from stock.
func (p *Product) CanSellSets(setQty int) bool {
	return CanSellSets(p.Stock, p.UnitsPerSet(), setQty)
}

// CanSellUnits is true iff qty >= 1 and stock >= qty.
func CanSellUnits(stock, qty int) bool {
	return qty >= 1 && stock >= qty
}

// CanSellSets is true iff sets are enabled (unitsPerSet > 0), setQty >= 1
// and floor(stock / unitsPerSet) >= setQty.
func CanSellSets(stock, unitsPerSet, setQty int) bool {
	if unitsPerSet <= 0 || setQty < 1 {
		return false
	}

	return SetsAvailable(stock, unitsPerSet) >= setQty
}

// SetsAvailable returns floor(stock / unitsPerSet). Disabled sets and
// non-positive stock yield 0.
func SetsAvailable(stock, unitsPerSet int) int {
	if unitsPerSet <= 0 || stock <= 0 {
		return 0
	}

	return stock / unitsPerSet
}

// Validate checks the product invariants. A nil result means the product is valid.
func (p *Product) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(p.Name) == "" {
		errs.Add("nombre", "es obligatorio")
	}
	if p.BuyPrice.IsNegative() {
		errs.Add("precioCompra", "no puede ser negativo")
	}
	if p.SellPrice.IsNegative() {
		errs.Add("precioVenta", "no puede ser negativo")
	}
	if p.Stock < 0 {
		errs.Add("stock", "no puede ser negativo")
	}

	if p.Set != nil {
		if strings.TrimSpace(p.Set.Name) == "" {
			errs.Add("nombreConjunto", "es obligatorio cuando se vende por conjunto")
		}
		if p.Set.UnitsPerSet <= 0 {
			errs.Add("unidadesPorConjunto", "debe ser mayor que cero")
		}
		if p.Set.Price.IsNegative() {
			errs.Add("precioConjunto", "no puede ser negativo")
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return errs
}

// FieldErrors maps a field name to what is wrong with it.
type FieldErrors map[string]string

// Add records msg for field, keeping the first message per field.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Error renders the fields in a stable order.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, fe[field]))
	}

	return strings.Join(parts, "; ")
}
