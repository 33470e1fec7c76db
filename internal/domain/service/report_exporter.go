package service

import (
	"io"

	"tienda/internal/domain/entity"
)

// ReportExporter renders admin downloads.
type ReportExporter interface {
	// WriteOrdersCSV writes one row per order line.
	WriteOrdersCSV(w io.Writer, orders []*entity.Order) error

	// WriteSalesXLSX writes a workbook with a sales sheet and a lines sheet.
	WriteSalesXLSX(w io.Writer, sales []*entity.Sale) error
}
