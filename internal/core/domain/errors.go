package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("email already registered")
	ErrItemNotFound       = errors.New("item not found")
	ErrInvalidID          = errors.New("invalid item id")
	ErrInsufficientStock  = errors.New("insufficient stock available")
	ErrEmptyUpdate        = errors.New("no fields to update")
	ErrDuplicateRequest   = errors.New("request already processed")
)

// ValidationError reports the first constraint an input violated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
