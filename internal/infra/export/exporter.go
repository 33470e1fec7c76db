// Package export renders admin report downloads.
package export

import (
	"io"
	"time"

	"tienda/internal/domain/entity"
	"tienda/internal/domain/service"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSales = "Ventas"
	sheetLines = "Lineas"
	dateLayout = "2006-01-02 15:04"
)

type exporter struct {
	loc *time.Location
}

// NewReportExporter formats timestamps in loc; nil means UTC.
func NewReportExporter(loc *time.Location) service.ReportExporter {
	if loc == nil {
		loc = time.UTC
	}

	return &exporter{loc: loc}
}

type orderLineRow struct {
	Number     int64  `csv:"pedido"`
	OrderedAt  string `csv:"fecha"`
	Customer   string `csv:"cliente"`
	Email      string `csv:"email"`
	Status     string `csv:"estado"`
	Product    string `csv:"producto"`
	Kind       string `csv:"tipo"`
	Quantity   int    `csv:"cantidad"`
	Units      int    `csv:"unidades"`
	Subtotal   string `csv:"subtotal"`
	Profit     string `csv:"ganancia"`
	OrderTotal string `csv:"total_pedido"`
}

func (e *exporter) WriteOrdersCSV(w io.Writer, orders []*entity.Order) error {
	rows := make([]*orderLineRow, 0, len(orders))
	for _, order := range orders {
		for _, line := range order.Lines {
			rows = append(rows, &orderLineRow{
				Number:     order.Number,
				OrderedAt:  order.OrderedAt.In(e.loc).Format(dateLayout),
				Customer:   order.CustomerName,
				Email:      order.CustomerEmail,
				Status:     string(order.Status),
				Product:    line.ProductName,
				Kind:       kindName(line.Kind),
				Quantity:   kindQuantity(line.Kind),
				Units:      line.Units(),
				Subtotal:   line.Subtotal.StringFixed(2),
				Profit:     line.Profit.StringFixed(2),
				OrderTotal: order.Total.StringFixed(2),
			})
		}
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return errors.Wrap(err, "failed to write orders csv")
	}

	return nil
}

func (e *exporter) WriteSalesXLSX(w io.Writer, sales []*entity.Sale) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSales); err != nil {
		return errors.WithStack(err)
	}
	if _, err := f.NewSheet(sheetLines); err != nil {
		return errors.WithStack(err)
	}

	salesHeader := []any{"Venta", "Fecha", "Cliente", "Teléfono", "Canal", "Pago", "Total", "Ganancia"}
	linesHeader := []any{"Venta", "Producto", "Tipo", "Cantidad", "Unidades", "Precio", "Subtotal", "Ganancia"}
	if err := setRow(f, sheetSales, 1, salesHeader); err != nil {
		return err
	}
	if err := setRow(f, sheetLines, 1, linesHeader); err != nil {
		return err
	}

	lineRow := 2
	for i, sale := range sales {
		if err := setRow(f, sheetSales, i+2, []any{
			sale.Number,
			sale.SoldAt.In(e.loc).Format(dateLayout),
			sale.CustomerName,
			sale.CustomerPhone,
			string(sale.Channel),
			sale.PaymentMethod,
			money(sale.Total),
			money(sale.TotalProfit),
		}); err != nil {
			return err
		}

		for _, line := range sale.Lines {
			if err := setRow(f, sheetLines, lineRow, []any{
				sale.Number,
				line.ProductName,
				kindName(line.Kind),
				kindQuantity(line.Kind),
				line.Units(),
				money(line.SellPrice),
				money(line.Subtotal),
				money(line.Profit),
			}); err != nil {
				return err
			}
			lineRow++
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write sales workbook")
	}

	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(f.SetSheetRow(sheet, cell, &values))
}

// money converts to float64 for spreadsheet arithmetic, rounded to cents.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func kindName(kind entity.LineKind) string {
	if kind == nil {
		return ""
	}

	return kind.Name()
}

// kindQuantity is what the customer asked for: units for individual lines, sets for set lines.
func kindQuantity(kind entity.LineKind) int {
	switch k := kind.(type) {
	case entity.Individual:
		return k.Qty
	case entity.Set:
		return k.SetQty
	default:
		return 0
	}
}
