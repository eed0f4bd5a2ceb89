package handler

import (
	"github.com/stockroom/storefront/internal/core/validation"
)

// NewValidator returns the validator assigned to echo.Echo.Validator so
// handlers can call c.Validate(req) on request shapes the services never see.
func NewValidator() *validation.Validator {
	return validation.New()
}
