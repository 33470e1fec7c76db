package handler

import (
	"time"

	"tienda/internal/domain/entity"
	"tienda/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JSON shapes the storefront and the point of sale read. Field names follow
// the Spanish wire format the clients already use.

type productResponse struct {
	ID            uuid.UUID        `json:"_id"`
	Name          string           `json:"nombre"`
	Description   string           `json:"descripcion"`
	Category      string           `json:"categoria"`
	BuyPrice      decimal.Decimal  `json:"precioCompra"`
	SellPrice     decimal.Decimal  `json:"precioVenta"`
	Stock         int              `json:"stock"`
	Image         string           `json:"imagen,omitempty"`
	HasSet        bool             `json:"tieneConjunto"`
	SetName       string           `json:"nombreConjunto,omitempty"`
	UnitsPerSet   int              `json:"unidadesPorConjunto,omitempty"`
	SetPrice      *decimal.Decimal `json:"precioConjunto,omitempty"`
	SetsAvailable int              `json:"conjuntosDisponibles"`
	Version       int64            `json:"version"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func newProductResponse(p *entity.Product) productResponse {
	resp := productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		BuyPrice:      p.BuyPrice,
		SellPrice:     p.SellPrice,
		Stock:         p.Stock,
		HasSet:        p.HasSet(),
		SetsAvailable: p.SetsAvailable(),
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.ImageKey != "" {
		resp.Image = "/productos/" + p.ID.String() + "/imagen"
	}
	if p.Set != nil {
		price := p.Set.Price
		resp.SetName = p.Set.Name
		resp.UnitsPerSet = p.Set.UnitsPerSet
		resp.SetPrice = &price
	}

	return resp
}

func newProductResponses(products []*entity.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, newProductResponse(p))
	}

	return out
}

// lineResponse is an order or sale line. cantidad is always in units;
// cantidadOriginal is the number of sets for conjunto lines.
type lineResponse struct {
	ProductID   uuid.UUID        `json:"producto"`
	ProductName string           `json:"nombre"`
	Kind        string           `json:"tipoVenta"`
	Quantity    int              `json:"cantidad"`
	SetQty      int              `json:"cantidadOriginal,omitempty"`
	UnitsPerSet int              `json:"unidadesPorConjunto,omitempty"`
	SetName     string           `json:"nombreConjunto,omitempty"`
	SetPrice    *decimal.Decimal `json:"precioConjunto,omitempty"`
	SellPrice   decimal.Decimal  `json:"precioVenta"`
	BuyPrice    decimal.Decimal  `json:"precioCompra"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	Profit      decimal.Decimal  `json:"ganancia"`
}

func newLineResponses(lines []entity.Line) []lineResponse {
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		resp := lineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Kind:        entity.LineKindIndividual,
			Quantity:    l.Units(),
			SellPrice:   l.SellPrice,
			BuyPrice:    l.BuyPrice,
			Subtotal:    l.Subtotal,
			Profit:      l.Profit,
		}
		if set, ok := l.Kind.(entity.Set); ok {
			price := set.SetPrice
			resp.Kind = set.Name()
			resp.SetQty = set.SetQty
			resp.UnitsPerSet = set.UnitsPerSet
			resp.SetName = set.SetName
			resp.SetPrice = &price
		}
		out = append(out, resp)
	}

	return out
}

type orderResponse struct {
	ID            uuid.UUID       `json:"_id"`
	Number        int64           `json:"numero"`
	UserID        uuid.UUID       `json:"usuario"`
	CustomerName  string          `json:"nombreCliente"`
	CustomerEmail string          `json:"emailCliente"`
	OrderedAt     time.Time       `json:"fechaPedido"`
	Status        string          `json:"estado"`
	Lines         []lineResponse  `json:"productos"`
	Total         decimal.Decimal `json:"total"`
	TotalProfit   decimal.Decimal `json:"gananciaTotal"`
	Version       int64           `json:"version"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func newOrderResponse(o *entity.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		Number:        o.Number,
		UserID:        o.UserID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		OrderedAt:     o.OrderedAt,
		Status:        string(o.Status),
		Lines:         newLineResponses(o.Lines),
		Total:         o.Total,
		TotalProfit:   o.TotalProfit,
		Version:       o.Version,
		UpdatedAt:     o.UpdatedAt,
	}
}

func newOrderResponses(orders []*entity.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(o))
	}

	return out
}

// orderPagination names its count totalOrders, as the admin panel expects.
type orderPagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalOrders int64 `json:"totalOrders"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int   `json:"limit"`
}

func newOrderPagination(p usecase.Pagination) orderPagination {
	return orderPagination{
		CurrentPage: p.CurrentPage,
		TotalPages:  p.TotalPages,
		TotalOrders: p.TotalItems,
		HasNextPage: p.HasNextPage,
		HasPrevPage: p.HasPrevPage,
		Limit:       p.Limit,
	}
}

type saleResponse struct {
	ID            uuid.UUID       `json:"_id"`
	Number        int64           `json:"numero"`
	CustomerName  string          `json:"nombreCliente"`
	CustomerPhone string          `json:"telefonoCliente,omitempty"`
	Lines         []lineResponse  `json:"productos"`
	Total         decimal.Decimal `json:"total"`
	TotalProfit   decimal.Decimal `json:"gananciaTotal"`
	Channel       string          `json:"canal"`
	PaymentMethod string          `json:"metodoPago,omitempty"`
	SoldAt        time.Time       `json:"fecha"`
	CashierID     *uuid.UUID      `json:"cajero,omitempty"`
}

func newSaleResponse(s *entity.Sale) saleResponse {
	resp := saleResponse{
		ID:            s.ID,
		Number:        s.Number,
		CustomerName:  s.CustomerName,
		CustomerPhone: s.CustomerPhone,
		Lines:         newLineResponses(s.Lines),
		Total:         s.Total,
		TotalProfit:   s.TotalProfit,
		Channel:       string(s.Channel),
		PaymentMethod: s.PaymentMethod,
		SoldAt:        s.SoldAt,
	}
	if s.CashierID != uuid.Nil {
		cashier := s.CashierID
		resp.CashierID = &cashier
	}

	return resp
}

type userResponse struct {
	ID        uuid.UUID `json:"_id"`
	Name      string    `json:"nombre"`
	Email     string    `json:"email"`
	Role      string    `json:"rol"`
	Verified  bool      `json:"verificado"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(u *entity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Roles()[0].String(),
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}
