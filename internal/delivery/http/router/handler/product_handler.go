package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"tienda/internal/delivery/http/response"
	"tienda/internal/domain/entity"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// ProductHandlerParams holds dependencies for ProductHandler, injected by Fx.
type ProductHandlerParams struct {
	fx.In

	ProductUC usecase.ProductUsecase
	Logger    *slog.Logger
}

// ProductHandler serves the catalog.
type ProductHandler struct {
	productUC usecase.ProductUsecase
	logger    *slog.Logger
}

// NewProductHandler is the constructor for ProductHandler
func NewProductHandler(params ProductHandlerParams) *ProductHandler {
	return &ProductHandler{
		productUC: params.ProductUC,
		logger:    params.Logger,
	}
}

// ProductRequest is the body of product create and update.
type ProductRequest struct {
	Name        string              `json:"nombre" validate:"required"`
	Description string              `json:"descripcion"`
	Category    string              `json:"categoria"`
	BuyPrice    decimal.NullDecimal `json:"precioCompra"`
	SellPrice   decimal.NullDecimal `json:"precioVenta"`
	Stock       int                 `json:"stock" validate:"gte=0"`
	HasSet      bool                `json:"tieneConjunto"`
	SetName     string              `json:"nombreConjunto"`
	UnitsPerSet int                 `json:"unidadesPorConjunto"`
	SetPrice    decimal.NullDecimal `json:"precioConjunto"`
	// Version is optional on update; when sent it must match the stored one.
	Version int64 `json:"version" validate:"gte=0"`
}

func (r ProductRequest) input() usecase.ProductInput {
	return usecase.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		BuyPrice:    r.BuyPrice,
		SellPrice:   r.SellPrice,
		Stock:       r.Stock,
		HasSet:      r.HasSet,
		SetName:     r.SetName,
		UnitsPerSet: r.UnitsPerSet,
		SetPrice:    r.SetPrice,
	}
}

// StockCheckRequest asks whether cantidad units or sets are available.
type StockCheckRequest struct {
	ProductID uuid.UUID `json:"productoId" validate:"required"`
	Quantity  int       `json:"cantidad" validate:"required,gte=1"`
	Kind      string    `json:"tipo" validate:"omitempty,oneof=individual conjunto"`
}

// List handles GET /productos.
func (h *ProductHandler) List(c echo.Context) error {
	page, err := h.productUC.List(c.Request().Context(), usecase.ListProductsInput{
		Category:    strings.TrimSpace(c.QueryParam("categoria")),
		Search:      strings.TrimSpace(c.QueryParam("q")),
		PageRequest: pageRequest(c),
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"productos":  newProductResponses(page.Products),
		"pagination": page.Pagination,
	}, "")
}

// Get handles GET /productos/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.productUC.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newProductResponse(product), "")
}

// Create handles POST /productos.
func (h *ProductHandler) Create(c echo.Context) error {
	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productUC.Create(c.Request().Context(), req.input())
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusCreated, newProductResponse(product), "Producto creado")
}

// Update handles PUT /productos/:id.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productUC.Update(c.Request().Context(), id, usecase.UpdateProductInput{
		ProductInput: req.input(),
		Version:      req.Version,
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newProductResponse(product), "Producto actualizado")
}

// Delete handles DELETE /productos/:id.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.productUC.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]string{"_id": id.String()}, "Producto eliminado")
}

// UploadImage handles POST /productos/:id/imagen with multipart field imagen.
func (h *ProductHandler) UploadImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("imagen")
	if err != nil {
		return domainerrors.ErrImageInvalid.WithDetails("falta el archivo imagen")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errors.Wrap(err, "failed to open uploaded image")
	}
	defer file.Close()

	product, err := h.productUC.UploadImage(c.Request().Context(), usecase.UploadImageInput{
		ProductID:   id,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newProductResponse(product), "Imagen actualizada")
}

// Image handles GET /productos/:id/imagen.
func (h *ProductHandler) Image(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	img, err := h.productUC.OpenImage(c.Request().Context(), id)
	if err != nil {
		return err
	}
	defer img.Body.Close()

	c.Response().Header().Set("Cache-Control", "public, max-age=300")

	return c.Stream(http.StatusOK, img.ContentType, img.Body)
}

// CheckStock handles POST /productos/verificar-stock.
func (h *ProductHandler) CheckStock(c echo.Context) error {
	var req StockCheckRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Kind == "" {
		req.Kind = entity.LineKindIndividual
	}

	out, err := h.productUC.CheckStock(c.Request().Context(), usecase.StockCheckInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Kind:      req.Kind,
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"disponible":           out.Available,
		"mensaje":              out.Message,
		"stockIndividual":      out.UnitStock,
		"conjuntosDisponibles": out.SetsAvailable,
	}, out.Message)
}
