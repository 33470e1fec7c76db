// Package response renders the one JSON envelope every API route answers with.
package response

import (
	"net/http"

	domainerrors "tienda/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// Response unified API response structure
type Response struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`    // HTTP status code
	Message string     `json:"message"` // User-facing message
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo detailed error information
type ErrorInfo struct {
	Code    string         `json:"code"`    // Business error code, e.g. "INSUFFICIENT_STOCK"
	Details string         `json:"details"` // Detailed error description
	Fields  map[string]any `json:"fields,omitempty"`
}

// Success successful response
func Success(c echo.Context, statusCode int, data any, message string) error {
	if message == "" {
		message = "OK"
	}

	return c.JSON(statusCode, Response{
		Success: true,
		Code:    statusCode,
		Message: message,
		Data:    data,
	})
}

// Error error response
func Error(c echo.Context, statusCode int, errorCode, message, details string, fields map[string]any) error {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return c.JSON(statusCode, Response{
		Success: false,
		Code:    statusCode,
		Message: message,
		Error: &ErrorInfo{
			Code:    errorCode,
			Details: details,
			Fields:  fields,
		},
	})
}

// AppError renders a taxonomy error with its status, code and flags.
func AppError(c echo.Context, err domainerrors.AppError) error {
	return Error(c, err.HTTPCode(), err.ErrorCode(), err.Message(), err.Details(), err.Fields())
}

// BindingError 400 for bodies that do not decode
func BindingError(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, "INVALID_INPUT", message, "", nil)
}

// InternalServerError 500 error
func InternalServerError(c echo.Context, details string) error {
	return Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Error interno del servidor", details, nil)
}
