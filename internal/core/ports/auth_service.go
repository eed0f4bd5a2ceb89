package ports

import (
	"context"

	"github.com/stockroom/storefront/internal/core/domain"
)

type RegisterInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
	Name     string `json:"name"     validate:"min=2"`
	Role     string `json:"role"     validate:"omitempty,oneof=USER ADMIN"`
}

type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is a user together with a freshly issued identity assertion.
type AuthResult struct {
	User  *domain.User
	Token string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Profile(ctx context.Context, caller domain.Identity) (*domain.User, error)
}
