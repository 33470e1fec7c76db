// Package stock holds the pure stock and profit arithmetic shared by online
// checkout, order cancellation and the point of sale.
package stock

import (
	"fmt"

	"tienda/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// Amounts is the money a single line moves.
type Amounts struct {
	Subtotal decimal.Decimal
	Profit   decimal.Decimal
}

// UnitDelta is the stock change of selling qty units.
func UnitDelta(qty int) int {
	return -qty
}

// ReversalDelta is the stock change of giving qty units back.
func ReversalDelta(qty int) int {
	return qty
}

// LineDelta is the stock change of writing a line of the given kind.
func LineDelta(kind entity.LineKind) int {
	return UnitDelta(kind.Units())
}

// LineProfit is (sellPrice - buyPrice) * qty, computed on the snapshots the
// caller passes in and never on live product prices.
func LineProfit(sellPrice, buyPrice decimal.Decimal, qty int) decimal.Decimal {
	return sellPrice.Sub(buyPrice).Mul(decimal.NewFromInt(int64(qty)))
}

// Settle computes subtotal and profit for a line kind given unit prices.
// A set is priced per bundle and costs unitBuy for each unit it contains.
func Settle(kind entity.LineKind, unitSell, unitBuy decimal.Decimal) Amounts {
	switch k := kind.(type) {
	case entity.Individual:
		return Amounts{
			Subtotal: unitSell.Mul(decimal.NewFromInt(int64(k.Qty))),
			Profit:   LineProfit(unitSell, unitBuy, k.Qty),
		}
	case entity.Set:
		setCost := unitBuy.Mul(decimal.NewFromInt(int64(k.UnitsPerSet)))

		return Amounts{
			Subtotal: k.SetPrice.Mul(decimal.NewFromInt(int64(k.SetQty))),
			Profit:   LineProfit(k.SetPrice, setCost, k.SetQty),
		}
	default:
		panic(fmt.Sprintf("stock: unhandled line kind %T", kind))
	}
}

// PriceLine returns line with Subtotal and Profit computed from its own snapshots.
func PriceLine(line entity.Line) entity.Line {
	amounts := Settle(line.Kind, line.SellPrice, line.BuyPrice)
	line.Subtotal = amounts.Subtotal
	line.Profit = amounts.Profit

	return line
}

// Totals sums subtotals and profits of lines.
func Totals(lines []entity.Line) (total, profit decimal.Decimal) {
	total, profit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal)
		profit = profit.Add(line.Profit)
	}

	return total, profit
}

// Reconciles reports whether total and profit equal the sums recomputed from
// each line's snapshots.
func Reconciles(total, profit decimal.Decimal, lines []entity.Line) bool {
	wantTotal, wantProfit := decimal.Zero, decimal.Zero
	for _, line := range lines {
		amounts := Settle(line.Kind, line.SellPrice, line.BuyPrice)
		wantTotal = wantTotal.Add(amounts.Subtotal)
		wantProfit = wantProfit.Add(amounts.Profit)
	}

	return total.Equal(wantTotal) && profit.Equal(wantProfit)
}
