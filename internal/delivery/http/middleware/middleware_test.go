package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	deliverycontext "tienda/internal/delivery/context"
	"tienda/internal/delivery/http/response"
	"tienda/internal/domain/entity"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/domain/service"
	"tienda/internal/infra/cache"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateAccessToken(userID uuid.UUID, roles []string) (string, time.Time, error) {
	args := m.Called(userID, roles)

	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockTokenService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(*service.Claims)

	return claims, args.Error(1)
}

type fakeLimiter struct {
	decision cache.RateDecision
	err      error
	keys     []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (cache.RateDecision, error) {
	f.keys = append(f.keys, key)

	return f.decision, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEcho wires the error handler the way the API server does.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = NewErrorMiddleware(discardLogger()).HandleHTTPError

	return e
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	userID := uuid.New()
	tokens := &mockTokenService{}
	tokens.On("ValidateToken", "good").Return(&service.Claims{UserID: userID, Roles: []string{"admin", "bogus"}}, nil)
	tokens.On("ValidateToken", "expired").Return(nil, errors.New("token is expired"))

	m := NewAuthMiddleware(tokens)
	e := newTestEcho()
	e.GET("/perfil", func(c echo.Context) error {
		id, ok := deliverycontext.GetUserID(c)
		require.True(t, ok)
		assert.Equal(t, userID, id)
		assert.Equal(t, entity.Roles{entity.RoleAdmin}, deliverycontext.GetRoles(c))

		return c.NoContent(http.StatusNoContent)
	}, m.Authenticate)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid bearer", "Bearer good", http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"rejected token", "Bearer expired", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/perfil", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				body := decode(t, rec)
				assert.False(t, body.Success)
				assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
			}
		})
	}
	tokens.AssertExpectations(t)
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	m := NewAuthMiddleware(&mockTokenService{})
	e := newTestEcho()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	withRoles := func(roles ...entity.Role) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				deliverycontext.SetUser(c, uuid.New(), roles)

				return next(c)
			}
		}
	}
	e.GET("/admin", ok, withRoles(entity.RoleAdmin), m.RequireRole(entity.RoleAdmin))
	e.GET("/cliente", ok, withRoles(entity.RoleCustomer), m.RequireRole(entity.RoleAdmin))
	e.GET("/anonimo", ok, m.RequireRole(entity.RoleAdmin))

	for path, want := range map[string]int{
		"/admin":   http.StatusNoContent,
		"/cliente": http.StatusForbidden,
		"/anonimo": http.StatusUnauthorized,
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}

func TestErrorMiddleware_RendersEnvelope(t *testing.T) {
	e := newTestEcho()
	e.GET("/stock", func(echo.Context) error {
		return errors.Wrap(domainerrors.NewInsufficientStockError("Vaso", 3), "checkout")
	})
	e.GET("/boom", func(echo.Context) error {
		return errors.New("connection reset")
	})
	e.GET("/echo", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, "no permitido")
	})

	t.Run("taxonomy error keeps status code and fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stock", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode(t, rec)
		assert.False(t, body.Success)
		assert.Equal(t, http.StatusBadRequest, body.Code)
		assert.Contains(t, body.Message, "Vaso")
		assert.Equal(t, "INSUFFICIENT_STOCK", body.Error.Code)
		assert.Equal(t, "Vaso", body.Error.Fields["producto"])
		assert.InDelta(t, 3, body.Error.Fields["disponible"], 0)
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	})

	t.Run("echo errors pass through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/echo", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "HTTP_ERROR", body.Error.Code)
		assert.Equal(t, "no permitido", body.Message)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nada", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	newEcho := func(limiter RateLimiter) *echo.Echo {
		m := &RateLimitMiddleware{limiter: limiter, logger: discardLogger()}
		e := newTestEcho()
		e.POST("/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, m.Handle)

		return e
	}
	do := func(e *echo.Echo) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		return rec
	}

	t.Run("allowed", func(t *testing.T) {
		limiter := &fakeLimiter{decision: cache.RateDecision{Allowed: true, Limit: 20, Remaining: 19}}

		rec := do(newEcho(limiter))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "20", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "19", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, []string{"/auth/login:10.0.0.7"}, limiter.keys)
	})

	t.Run("denied", func(t *testing.T) {
		limiter := &fakeLimiter{decision: cache.RateDecision{Limit: 20, RetryAfter: 1500 * time.Millisecond}}

		rec := do(newEcho(limiter))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("Retry-After"))
		assert.Equal(t, "RATE_LIMITED", decode(t, rec).Error.Code)
	})

	t.Run("limiter failure lets the request through", func(t *testing.T) {
		rec := do(newEcho(&fakeLimiter{err: errors.New("redis down")}))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		m := NewRateLimitMiddleware(nil, discardLogger())
		assert.Nil(t, m.limiter)
	})
}
