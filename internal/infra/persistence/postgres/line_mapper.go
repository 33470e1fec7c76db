package postgres

import (
	"tienda/internal/domain/entity"
	"tienda/internal/infra/persistence/model"
)

func fromLinesDomain(lines []entity.Line) []model.LineRecord {
	records := make([]model.LineRecord, 0, len(lines))
	for _, line := range lines {
		record := model.LineRecord{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			SellPrice:   line.SellPrice,
			BuyPrice:    line.BuyPrice,
			Subtotal:    line.Subtotal,
			Profit:      line.Profit,
		}

		switch kind := line.Kind.(type) {
		case entity.Individual:
			record.Kind = entity.LineKindIndividual
			record.Qty = kind.Qty
		case entity.Set:
			record.Kind = entity.LineKindSet
			record.SetQty = kind.SetQty
			record.UnitsPerSet = kind.UnitsPerSet
			record.SetName = kind.SetName
			record.SetPrice = kind.SetPrice
		}

		records = append(records, record)
	}

	return records
}

// toLinesDomain rebuilds line kinds; rows written before set support default to individual.
func toLinesDomain(records []model.LineRecord) []entity.Line {
	lines := make([]entity.Line, 0, len(records))
	for _, record := range records {
		var kind entity.LineKind = entity.Individual{Qty: record.Qty}
		if record.Kind == entity.LineKindSet {
			kind = entity.Set{
				SetQty:      record.SetQty,
				UnitsPerSet: record.UnitsPerSet,
				SetName:     record.SetName,
				SetPrice:    record.SetPrice,
			}
		}

		lines = append(lines, entity.Line{
			ProductID:   record.ProductID,
			ProductName: record.ProductName,
			Kind:        kind,
			SellPrice:   record.SellPrice,
			BuyPrice:    record.BuyPrice,
			Subtotal:    record.Subtotal,
			Profit:      record.Profit,
		})
	}

	return lines
}
