package handler

import (
	"bytes"
	"log/slog"
	"net/http"

	"tienda/internal/delivery/http/response"
	"tienda/internal/domain/entity"
	"tienda/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// OrderHandlerParams holds dependencies for OrderHandler, injected by Fx.
type OrderHandlerParams struct {
	fx.In

	OrderUC usecase.OrderUsecase
	Logger  *slog.Logger
}

// OrderHandler serves online checkout and the order lifecycle.
type OrderHandler struct {
	orderUC usecase.OrderUsecase
	logger  *slog.Logger
}

// NewOrderHandler is the constructor for OrderHandler
func NewOrderHandler(params OrderHandlerParams) *OrderHandler {
	return &OrderHandler{
		orderUC: params.OrderUC,
		logger:  params.Logger,
	}
}

// CartItemRequest is one cart entry. nombre is informational; the catalog name wins.
type CartItemRequest struct {
	ProductID uuid.UUID `json:"_id" validate:"required"`
	Name      string    `json:"nombre"`
	Quantity  int       `json:"cantidad" validate:"required,gte=1"`
}

// cartRequest wraps the top-level JSON array so the validator can dive into it.
// An empty cart is left to checkout, which reports it as EMPTY_CART.
type cartRequest struct {
	Items []CartItemRequest `json:"productos" validate:"dive"`
}

// StatusRequest is the body of the admin status change.
type StatusRequest struct {
	Status string `json:"estado" validate:"required,oneof=pendiente confirmado listo_para_recoger enviado entregado cancelado"`
}

type checkoutResponse struct {
	Message     string          `json:"mensaje"`
	OrderID     uuid.UUID       `json:"pedidoId"`
	Number      int64           `json:"numero"`
	Total       decimal.Decimal `json:"total"`
	TotalProfit decimal.Decimal `json:"gananciaTotal"`
}

// Checkout handles POST /pedidos/confirmar. The body is the cart array.
func (h *OrderHandler) Checkout(c echo.Context) error {
	caller, err := actor(c)
	if err != nil {
		return err
	}

	var req cartRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req.Items); err != nil {
		return bindError()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	items := make([]usecase.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, usecase.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orderUC.Checkout(c.Request().Context(), usecase.CheckoutInput{
		UserID: caller.UserID,
		Items:  items,
	})
	if err != nil {
		return err
	}

	const message = "Pedido confirmado exitosamente"

	return response.Success(c, http.StatusCreated, checkoutResponse{
		Message:     message,
		OrderID:     order.ID,
		Number:      order.Number,
		Total:       order.Total,
		TotalProfit: order.TotalProfit,
	}, message)
}

// ListMine handles GET /pedidos/mis-pedidos.
func (h *OrderHandler) ListMine(c echo.Context) error {
	caller, err := actor(c)
	if err != nil {
		return err
	}

	orders, err := h.orderUC.ListMine(c.Request().Context(), caller.UserID)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newOrderResponses(orders), "")
}

// ListAll handles GET /pedidos/todos.
func (h *OrderHandler) ListAll(c echo.Context) error {
	page, err := h.orderUC.List(c.Request().Context(), usecase.ListOrdersInput{
		Status:      entity.OrderStatus(c.QueryParam("estado")),
		PageRequest: pageRequest(c),
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"pedidos":    newOrderResponses(page.Orders),
		"pagination": newOrderPagination(page.Pagination),
	}, "")
}

// Get handles GET /pedidos/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	caller, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderUC.Get(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newOrderResponse(order), "")
}

// UpdateStatus handles PUT /pedidos/:id/estado.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orderUC.UpdateStatus(c.Request().Context(), id, entity.OrderStatus(req.Status))
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newOrderResponse(order), "Estado del pedido actualizado")
}

// CancelByCustomer handles DELETE /pedidos/:id/cancelar-cliente.
func (h *OrderHandler) CancelByCustomer(c echo.Context) error {
	caller, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderUC.CancelByCustomer(c.Request().Context(), caller.UserID, id)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newOrderResponse(order), "Pedido cancelado")
}

// PickupQR handles GET /pedidos/:id/qr.
func (h *OrderHandler) PickupQR(c echo.Context) error {
	caller, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	png, err := h.orderUC.PickupQR(c.Request().Context(), caller, id)
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// Export handles GET /pedidos/exportar.
func (h *OrderHandler) Export(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.orderUC.ExportCSV(c.Request().Context(), &buf); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="pedidos.csv"`)

	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
