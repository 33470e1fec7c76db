package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tienda/config"
	deliverycontext "tienda/internal/delivery/context"
	httpmiddleware "tienda/internal/delivery/http/middleware"
	"tienda/internal/delivery/http/router"
	"tienda/internal/delivery/http/router/handler"
	"tienda/internal/domain/entity"
	"tienda/internal/infra/auth"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRoutedEcho registers every route. Handlers have no usecases behind
// them, so only requests rejected before the usecase may be sent.
func newRoutedEcho(t *testing.T) (*echo.Echo, func(role entity.Role) string) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{}
	cfg.SecretKey.Access = "test-secret"
	cfg.HTTP.MaxRequestBodySize = "1MB"
	cfg.HTTP.AllowOrigins = []string{"http://tienda.test"}

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	e := NewEcho(cfg, logger, httpmiddleware.NewErrorMiddleware(logger))
	router.NewRouter(router.RouterParams{
		ProductHandler:      handler.NewProductHandler(handler.ProductHandlerParams{Logger: logger}),
		OrderHandler:        handler.NewOrderHandler(handler.OrderHandlerParams{Logger: logger}),
		SaleHandler:         handler.NewSaleHandler(handler.SaleHandlerParams{Logger: logger}),
		AuthHandler:         handler.NewAuthHandler(handler.AuthHandlerParams{Logger: logger}),
		AuthMiddleware:      httpmiddleware.NewAuthMiddleware(tokens),
		RateLimitMiddleware: httpmiddleware.NewRateLimitMiddleware(nil, logger),
	}).RegisterRoutes(e)

	tokenFor := func(role entity.Role) string {
		token, _, err := tokens.GenerateAccessToken(uuid.New(), []string{role.String()})
		require.NoError(t, err)

		return "Bearer " + token
	}

	return e, tokenFor
}

func TestRoutes_Gates(t *testing.T) {
	e, tokenFor := newRoutedEcho(t)
	customer := tokenFor(entity.RoleCustomer)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"checkout needs login", http.MethodPost, "/pedidos/confirmar", "", "[]", http.StatusUnauthorized},
		{"my orders need login", http.MethodGet, "/pedidos/mis-pedidos", "", "", http.StatusUnauthorized},
		{"all orders are admin only", http.MethodGet, "/pedidos/todos", customer, "", http.StatusForbidden},
		{"order export is admin only", http.MethodGet, "/pedidos/exportar", customer, "", http.StatusForbidden},
		{"status change is admin only", http.MethodPut, "/pedidos/" + uuid.NewString() + "/estado", customer, `{"estado":"enviado"}`, http.StatusForbidden},
		{"recording a sale is admin only", http.MethodPost, "/ventas", customer, "{}", http.StatusForbidden},
		{"sale list needs login", http.MethodGet, "/ventas", "", "", http.StatusUnauthorized},
		{"product create is admin only", http.MethodPost, "/productos", customer, "{}", http.StatusForbidden},
		{"product delete is admin only", http.MethodDelete, "/productos/" + uuid.NewString(), customer, "", http.StatusForbidden},
		{"profile needs login", http.MethodGet, "/auth/perfil", "", "", http.StatusUnauthorized},
		{"forged token", http.MethodGet, "/pedidos/mis-pedidos", "Bearer abc.def.ghi", "", http.StatusUnauthorized},
		{"login body is validated", http.MethodPost, "/auth/login", "", `{}`, http.StatusBadRequest},
		{"product id must be a uuid", http.MethodGet, "/productos/123", "", "", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/carrito", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tt.token != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.token)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get(deliverycontext.HeaderXRequestID))
		})
	}
}

func TestRoutes_HealthAndCORS(t *testing.T) {
	e, _ := newRoutedEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderOrigin, "http://tienda.test")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://tienda.test", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestNewEcho_BodyLimit(t *testing.T) {
	e, _ := newRoutedEcho(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(strings.Repeat("x", 2<<20)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
