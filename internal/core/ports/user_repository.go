package ports

import (
	"context"

	"github.com/stockroom/storefront/internal/core/domain"
)

// UserRepository persists registered accounts. Email is unique.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
