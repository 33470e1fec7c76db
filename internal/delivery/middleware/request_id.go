// Package middleware holds the echo middleware shared by the API and worker servers.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	deliverycontext "tienda/internal/delivery/context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxRequestIDLen bounds ids accepted from callers.
const maxRequestIDLen = 128

// RequestIDMiddleware tags every request with an id, echoed in the response
// and carried by the logger services pull from the context.
type RequestIDMiddleware struct {
	logger *slog.Logger
}

// NewRequestIDMiddleware wraps logger for per-request children.
func NewRequestIDMiddleware(logger *slog.Logger) *RequestIDMiddleware {
	return &RequestIDMiddleware{logger: logger}
}

// Process reuses a well-formed X-Request-Id or mints a uuid.
func (m *RequestIDMiddleware) Process(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := callerRequestID(c.Request())
		if requestID == "" {
			requestID = uuid.NewString()
		}

		deliverycontext.SetRequestID(c, requestID)
		c.Response().Header().Set(deliverycontext.HeaderXRequestID, requestID)
		c.SetRequest(c.Request().WithContext(
			deliverycontext.WithRequestScope(c.Request().Context(), m.logger, requestID),
		))

		return next(c)
	}
}

// callerRequestID returns the caller's id, or "" when it is missing, too long
// or holds anything but visible ASCII, so it cannot forge log lines.
func callerRequestID(req *http.Request) string {
	id := req.Header.Get(deliverycontext.HeaderXRequestID)
	if id == "" || len(id) > maxRequestIDLen {
		return ""
	}
	if strings.IndexFunc(id, func(r rune) bool { return r < '!' || r > '~' }) >= 0 {
		return ""
	}

	return id
}
