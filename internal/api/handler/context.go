package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/stockroom/storefront/internal/api/middleware"
	"github.com/stockroom/storefront/internal/core/domain"
)

// caller returns the identity resolved by middleware.Identify. The services
// make the authorization decision; handlers only pass the identity along.
func caller(c echo.Context) domain.Identity {
	return middleware.CurrentIdentity(c)
}

// bindBody decodes the request body into dst. Malformed JSON or a value of
// the wrong JSON type is reported as a validation failure.
func bindBody(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return &domain.ValidationError{Message: "Invalid request body"}
	}
	return nil
}
