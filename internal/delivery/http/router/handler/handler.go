// Package handler contains the HTTP handlers for the store API.
package handler

import (
	"net/http"

	deliverycontext "tienda/internal/delivery/context"
	"tienda/internal/delivery/http/response"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// bind decodes the body into req and runs the struct validation tags.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return bindError()
	}

	return c.Validate(req)
}

func bindError() error {
	return domainerrors.NewValidationError("el cuerpo de la solicitud no es válido")
}

// pathID parses the :name path parameter as a uuid.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domainerrors.NewValidationError(name + ": no es un identificador válido")
	}

	return id, nil
}

// pageRequest reads page and limit; garbage reads as zero and is normalized later.
func pageRequest(c echo.Context) usecase.PageRequest {
	return usecase.PageRequest{
		Page:  cast.ToInt(c.QueryParam("page")),
		Limit: cast.ToInt(c.QueryParam("limit")),
	}
}

// actor is the authenticated caller. Routes using it sit behind Authenticate.
func actor(c echo.Context) (usecase.Actor, error) {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return usecase.Actor{}, domainerrors.ErrUnauthorized
	}

	return usecase.Actor{UserID: userID, Roles: deliverycontext.GetRoles(c)}, nil
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Servicio operativo")
}
