package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stockroom/storefront/internal/core/domain"
)

// Error kinds carried in the "code" field of the envelope.
const (
	codeValidation        = "VALIDATION_ERROR"
	codeEmptyUpdate       = "EMPTY_UPDATE"
	codeUnauthorized      = "UNAUTHORIZED"
	codeForbidden         = "FORBIDDEN"
	codeNotFound          = "NOT_FOUND"
	codeConflict          = "CONFLICT"
	codeInsufficientStock = "INSUFFICIENT_STOCK"
	codeInternal          = "INTERNAL"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status and error kind.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<KIND>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Error: ve.Message, Code: codeValidation}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, errorResponse{Error: "Invalid item ID", Code: codeValidation}
	case errors.Is(err, domain.ErrEmptyUpdate):
		return http.StatusBadRequest, errorResponse{Error: "No fields to update", Code: codeEmptyUpdate}
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusBadRequest, errorResponse{Error: "Insufficient stock available", Code: codeInsufficientStock}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "Invalid email or password", Code: codeUnauthorized}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Error: "Authentication required", Code: codeUnauthorized}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "Admin access required", Code: codeForbidden}
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, errorResponse{Error: "Item not found", Code: codeNotFound}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "User not found", Code: codeNotFound}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: "Email already registered", Code: codeConflict}
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, errorResponse{Error: "Request already processed", Code: codeConflict}
	}

	// Echo's own errors (unknown route, wrong method, body too large, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnhandled(log, c, err)
		}
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: codeForStatus(he.Code)}
	}

	logUnhandled(log, c, err)
	return http.StatusInternalServerError, errorResponse{Error: "Internal server error", Code: codeInternal}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return codeValidation
	case http.StatusUnauthorized:
		return codeUnauthorized
	case http.StatusForbidden:
		return codeForbidden
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusConflict:
		return codeConflict
	}
	if status >= http.StatusInternalServerError {
		return codeInternal
	}
	return "REQUEST_ERROR"
}

func logUnhandled(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
