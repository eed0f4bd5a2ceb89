package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/stockroom/storefront/internal/core/authz"
)

// RBAC rejects callers the authorization matrix denies for op before the
// request body is read. Errors flow to the central error handler.
func RBAC(op authz.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authz.Authorize(CurrentIdentity(c), op); err != nil {
				return err
			}
			return next(c)
		}
	}
}
