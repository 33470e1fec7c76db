package stock

import (
	"testing"

	"tienda/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDeltas(t *testing.T) {
	assert.Equal(t, -3, UnitDelta(3))
	assert.Equal(t, 3, ReversalDelta(3))
	assert.Equal(t, -24, LineDelta(entity.Set{SetQty: 2, UnitsPerSet: 12}))
	assert.Equal(t, -5, LineDelta(entity.Individual{Qty: 5}))
}

func TestLineProfit(t *testing.T) {
	tests := []struct {
		name string
		sell string
		buy  string
		qty  int
		want string
	}{
		{"positive margin", "15.50", "10.25", 3, "15.75"},
		{"zero margin", "10", "10", 7, "0"},
		{"loss", "8", "10", 2, "-4"},
		{"fractional cents keep precision", "0.10", "0.03", 3, "0.21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineProfit(dec(tt.sell), dec(tt.buy), tt.qty)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestSettle_Individual(t *testing.T) {
	got := Settle(entity.Individual{Qty: 3}, dec("12.00"), dec("7.50"))

	assert.True(t, dec("36").Equal(got.Subtotal))
	assert.True(t, dec("13.5").Equal(got.Profit))
}

func TestSettle_Set(t *testing.T) {
	kind := entity.Set{SetQty: 2, UnitsPerSet: 12, SetName: "Docena", SetPrice: dec("100")}

	got := Settle(kind, dec("10"), dec("6"))

	// 2 bundles at 100, each bundle costs 12 * 6 = 72.
	assert.True(t, dec("200").Equal(got.Subtotal))
	assert.True(t, dec("56").Equal(got.Profit))
}

func TestSettle_NilKindPanics(t *testing.T) {
	assert.Panics(t, func() {
		Settle(nil, decimal.Zero, decimal.Zero)
	})
}

func TestTotalsAndReconciles(t *testing.T) {
	lines := []entity.Line{
		PriceLine(entity.Line{Kind: entity.Individual{Qty: 3}, SellPrice: dec("19.99"), BuyPrice: dec("11.11")}),
		PriceLine(entity.Line{Kind: entity.Individual{Qty: 1}, SellPrice: dec("0.01"), BuyPrice: dec("0")}),
		PriceLine(entity.Line{
			Kind:      entity.Set{SetQty: 1, UnitsPerSet: 6, SetName: "Media docena", SetPrice: dec("50")},
			SellPrice: dec("10"),
			BuyPrice:  dec("5"),
		}),
	}

	total, profit := Totals(lines)

	assert.True(t, dec("109.98").Equal(total), "total %s", total)
	assert.True(t, dec("46.65").Equal(profit), "profit %s", profit)
	assert.True(t, Reconciles(total, profit, lines))
	assert.False(t, Reconciles(total.Add(dec("0.01")), profit, lines))
	assert.False(t, Reconciles(total, profit.Sub(dec("1")), lines))
}

func TestTotals_Empty(t *testing.T) {
	total, profit := Totals(nil)

	assert.True(t, total.IsZero())
	assert.True(t, profit.IsZero())
}
