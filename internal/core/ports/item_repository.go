package ports

import (
	"context"

	"github.com/stockroom/storefront/internal/core/domain"
)

// ItemRepository is the only component allowed to change item stock.
//
// DecrementStock and IncrementStock must each be a single atomic conditional
// update on the backing store and return the post-mutation record.
type ItemRepository interface {
	// ValidID reports whether id is well formed for this backend.
	ValidID(id string) bool

	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.Item, error)
	Delete(ctx context.Context, id string) error

	// DecrementStock returns domain.ErrInsufficientStock when quantity < qty
	// and domain.ErrItemNotFound when the item does not exist.
	DecrementStock(ctx context.Context, id string, qty int) (*domain.Item, error)
	IncrementStock(ctx context.Context, id string, qty int) (*domain.Item, error)
}
