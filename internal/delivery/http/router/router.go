// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"tienda/internal/delivery/http/middleware"
	"tienda/internal/delivery/http/router/handler"
	"tienda/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	ProductHandler      *handler.ProductHandler
	OrderHandler        *handler.OrderHandler
	SaleHandler         *handler.SaleHandler
	AuthHandler         *handler.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	productHandler *handler.ProductHandler
	orderHandler   *handler.OrderHandler
	saleHandler    *handler.SaleHandler
	authHandler    *handler.AuthHandler
	authMiddleware *middleware.AuthMiddleware
	rateLimit      *middleware.RateLimitMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		productHandler: params.ProductHandler,
		orderHandler:   params.OrderHandler,
		saleHandler:    params.SaleHandler,
		authHandler:    params.AuthHandler,
		authMiddleware: params.AuthMiddleware,
		rateLimit:      params.RateLimitMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	authenticate := r.authMiddleware.Authenticate
	adminOnly := r.authMiddleware.RequireRole(entity.RoleAdmin)

	// Auth routes, throttled per client
	authGroup := e.Group("/auth", r.rateLimit.Handle)
	{
		authGroup.POST("/registro", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/verificar", r.authHandler.Verify)
		authGroup.GET("/verificar/:token", r.authHandler.VerifyLink)
		authGroup.POST("/reenviar-verificacion", r.authHandler.ResendVerification)
		authGroup.POST("/olvide-password", r.authHandler.ForgotPassword)
		authGroup.POST("/restablecer-password", r.authHandler.ResetPassword)
		authGroup.GET("/perfil", r.authHandler.Profile, authenticate)
	}

	// Catalog: reads and stock checks are public
	productGroup := e.Group("/productos")
	{
		productGroup.GET("", r.productHandler.List)
		productGroup.POST("/verificar-stock", r.productHandler.CheckStock)
		productGroup.GET("/:id", r.productHandler.Get)
		productGroup.GET("/:id/imagen", r.productHandler.Image)

		productGroup.POST("", r.productHandler.Create, authenticate, adminOnly)
		productGroup.PUT("/:id", r.productHandler.Update, authenticate, adminOnly)
		productGroup.DELETE("/:id", r.productHandler.Delete, authenticate, adminOnly)
		productGroup.POST("/:id/imagen", r.productHandler.UploadImage, authenticate, adminOnly)
	}

	// Orders: every route needs a logged in customer
	orderGroup := e.Group("/pedidos", authenticate)
	{
		orderGroup.POST("/confirmar", r.orderHandler.Checkout)
		orderGroup.GET("/mis-pedidos", r.orderHandler.ListMine)
		orderGroup.DELETE("/:id/cancelar-cliente", r.orderHandler.CancelByCustomer)
		orderGroup.GET("/:id", r.orderHandler.Get)
		orderGroup.GET("/:id/qr", r.orderHandler.PickupQR)

		orderGroup.GET("/todos", r.orderHandler.ListAll, adminOnly)
		orderGroup.GET("/exportar", r.orderHandler.Export, adminOnly)
		orderGroup.PUT("/:id/estado", r.orderHandler.UpdateStatus, adminOnly)
	}

	// Point of sale
	saleGroup := e.Group("/ventas", authenticate)
	{
		saleGroup.GET("", r.saleHandler.List)
		saleGroup.POST("", r.saleHandler.Record, adminOnly)
		saleGroup.GET("/exportar", r.saleHandler.Export, adminOnly)
	}
}
