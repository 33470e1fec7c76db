package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "tienda/internal/delivery/context"
	"tienda/internal/delivery/http/response"
	"tienda/internal/domain/entity"
	"tienda/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SaleHandlerParams holds dependencies for SaleHandler, injected by Fx.
type SaleHandlerParams struct {
	fx.In

	SaleUC usecase.SaleUsecase
	Logger *slog.Logger
}

// SaleHandler serves the point of sale.
type SaleHandler struct {
	saleUC usecase.SaleUsecase
	logger *slog.Logger
}

// NewSaleHandler is the constructor for SaleHandler
func NewSaleHandler(params SaleHandlerParams) *SaleHandler {
	return &SaleHandler{
		saleUC: params.SaleUC,
		logger: params.Logger,
	}
}

// SaleLineRequest is a line as the point of sale builds it. For conjunto lines
// cantidadOriginal is the number of sets and cantidad the units they hold.
type SaleLineRequest struct {
	ProductID   uuid.UUID       `json:"producto" validate:"required"`
	ProductName string          `json:"nombre"`
	Kind        string          `json:"tipoVenta" validate:"omitempty,oneof=individual conjunto"`
	Quantity    int             `json:"cantidad" validate:"gte=0"`
	SetQty      int             `json:"cantidadOriginal" validate:"gte=0"`
	UnitsPerSet int             `json:"unidadesPorConjunto" validate:"gte=0"`
	SetName     string          `json:"nombreConjunto"`
	SetPrice    decimal.Decimal `json:"precioConjunto"`
	SellPrice   decimal.Decimal `json:"precioVenta"`
	BuyPrice    decimal.Decimal `json:"precioCompra"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Profit      decimal.Decimal `json:"ganancia"`
}

// SaleRequest is the sale document sent by the cashier.
type SaleRequest struct {
	CustomerName  string            `json:"nombreCliente"`
	CustomerPhone string            `json:"telefonoCliente"`
	PaymentMethod string            `json:"metodoPago"`
	Channel       string            `json:"canal" validate:"omitempty,oneof=fisica online"`
	SoldAt        *time.Time        `json:"fecha"`
	Lines         []SaleLineRequest `json:"productos" validate:"dive"`
	Total         decimal.Decimal   `json:"total"`
	TotalProfit   decimal.Decimal   `json:"gananciaTotal"`
}

func (r SaleRequest) input(cashierID uuid.UUID) usecase.RecordSaleInput {
	in := usecase.RecordSaleInput{
		CashierID:     cashierID,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		PaymentMethod: r.PaymentMethod,
		Channel:       entity.SaleChannel(r.Channel),
		Lines:         make([]usecase.SaleLineInput, 0, len(r.Lines)),
		Total:         r.Total,
		TotalProfit:   r.TotalProfit,
	}
	if r.SoldAt != nil {
		in.SoldAt = *r.SoldAt
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, usecase.SaleLineInput{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Kind:        l.Kind,
			Quantity:    l.Quantity,
			SetQty:      l.SetQty,
			UnitsPerSet: l.UnitsPerSet,
			SetName:     l.SetName,
			SetPrice:    l.SetPrice,
			SellPrice:   l.SellPrice,
			BuyPrice:    l.BuyPrice,
			Subtotal:    l.Subtotal,
			Profit:      l.Profit,
		})
	}

	return in
}

// Record handles POST /ventas.
func (h *SaleHandler) Record(c echo.Context) error {
	var req SaleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cashierID, _ := deliverycontext.GetUserID(c)
	sale, err := h.saleUC.Record(c.Request().Context(), req.input(cashierID))
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusCreated, newSaleResponse(sale), "Venta registrada")
}

// List handles GET /ventas.
func (h *SaleHandler) List(c echo.Context) error {
	sales, err := h.saleUC.List(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, newSaleResponse(s))
	}

	return response.Success(c, http.StatusOK, out, "")
}

// Export handles GET /ventas/exportar.
func (h *SaleHandler) Export(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.saleUC.ExportXLSX(c.Request().Context(), &buf); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="ventas.xlsx"`)

	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
