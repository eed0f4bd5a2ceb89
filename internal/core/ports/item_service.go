package ports

import (
	"context"

	"github.com/stockroom/storefront/internal/core/domain"
)

type ListItemsInput struct {
	Name     string
	Category string
	MinPrice *float64 `json:"minPrice" validate:"omitempty,min=0"`
	MaxPrice *float64 `json:"maxPrice" validate:"omitempty,min=0"`
}

type CreateItemInput struct {
	Name        string   `json:"name"        validate:"required"`
	Category    string   `json:"category"    validate:"required"`
	Price       *float64 `json:"price"       validate:"required,gt=0"`
	Quantity    *float64 `json:"quantity"    validate:"required,integer,min=0"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"imageUrl"`
}

// UpdateItemInput applies the creation rules to whichever fields are present.
type UpdateItemInput struct {
	Name        *string  `json:"name"        validate:"omitempty,min=1"`
	Category    *string  `json:"category"    validate:"omitempty,min=1"`
	Price       *float64 `json:"price"       validate:"omitempty,gt=0"`
	Quantity    *float64 `json:"quantity"    validate:"omitempty,integer,min=0"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"imageUrl"`
}

// StockChangeInput is the body of a purchase or restock.
type StockChangeInput struct {
	Quantity *float64 `json:"quantity" validate:"required,integer,gt=0"`

	// IdempotencyKey deduplicates retried purchases. Optional.
	IdempotencyKey string `json:"-"`
}

type ItemService interface {
	List(ctx context.Context, in ListItemsInput) ([]domain.Item, error)
	Get(ctx context.Context, id string) (*domain.Item, error)
	Create(ctx context.Context, caller domain.Identity, in CreateItemInput) (*domain.Item, error)
	Update(ctx context.Context, caller domain.Identity, id string, in UpdateItemInput) (*domain.Item, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
	Purchase(ctx context.Context, caller domain.Identity, id string, in StockChangeInput) (*domain.Item, error)
	Restock(ctx context.Context, caller domain.Identity, id string, in StockChangeInput) (*domain.Item, error)
	ValidID(id string) bool
}
