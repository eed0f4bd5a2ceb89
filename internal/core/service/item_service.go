package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom/storefront/internal/core/authz"
	"github.com/stockroom/storefront/internal/core/domain"
	"github.com/stockroom/storefront/internal/core/ports"
	"github.com/stockroom/storefront/internal/core/validation"
)

// IdempotencyGuard abstracts the purchase deduplication store (Redis).
type IdempotencyGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// MovementQueue accepts committed stock movements for asynchronous delivery.
type MovementQueue interface {
	Enqueue(m domain.StockMovement)
}

// ItemService guards every catalogue and stock operation with the
// authorization matrix and input validation before reaching the store.
type ItemService struct {
	items     ports.ItemRepository
	guard     IdempotencyGuard
	movements MovementQueue
	log       zerolog.Logger
}

// NewItemService returns an ItemService. guard and movements may be nil.
func NewItemService(items ports.ItemRepository, guard IdempotencyGuard, movements MovementQueue, log zerolog.Logger) *ItemService {
	return &ItemService{items: items, guard: guard, movements: movements, log: log}
}

func (s *ItemService) List(ctx context.Context, in ports.ListItemsInput) ([]domain.Item, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx, domain.ItemFilter{
		Name:     in.Name,
		Category: in.Category,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ValidID reports whether id has the shape the store issues.
func (s *ItemService) ValidID(id string) bool {
	return s.items.ValidID(id)
}

func (s *ItemService) Get(ctx context.Context, id string) (*domain.Item, error) {
	if !s.items.ValidID(id) {
		return nil, domain.ErrInvalidID
	}
	return s.items.FindByID(ctx, id)
}

func (s *ItemService) Create(ctx context.Context, caller domain.Identity, in ports.CreateItemInput) (*domain.Item, error) {
	if err := authz.Authorize(caller, authz.OpCreateItem); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.items.Create(ctx, &domain.Item{
		Name:        in.Name,
		Category:    in.Category,
		Price:       *in.Price,
		Quantity:    int(*in.Quantity),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.log.Info().Str("item_id", created.ID).Str("actor", caller.UserID).Msg("item created")
	return created, nil
}

// Update returns domain.ErrEmptyUpdate when no field is supplied.
func (s *ItemService) Update(ctx context.Context, caller domain.Identity, id string, in ports.UpdateItemInput) (*domain.Item, error) {
	if err := authz.Authorize(caller, authz.OpUpdateItem); err != nil {
		return nil, err
	}
	if !s.items.ValidID(id) {
		return nil, domain.ErrInvalidID
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	patch := domain.ItemPatch{
		Name:        in.Name,
		Category:    in.Category,
		Price:       in.Price,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	}
	if in.Quantity != nil {
		q := int(*in.Quantity)
		patch.Quantity = &q
	}
	if patch.Empty() {
		return nil, domain.ErrEmptyUpdate
	}

	return s.items.Update(ctx, id, patch)
}

func (s *ItemService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	if err := authz.Authorize(caller, authz.OpDeleteItem); err != nil {
		return err
	}
	if !s.items.ValidID(id) {
		return domain.ErrInvalidID
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("item_id", id).Str("actor", caller.UserID).Msg("item deleted")
	return nil
}

// Purchase removes stock in a single conditional update. Concurrent purchases
// never drive quantity below zero; the loser gets domain.ErrInsufficientStock.
func (s *ItemService) Purchase(ctx context.Context, caller domain.Identity, id string, in ports.StockChangeInput) (*domain.Item, error) {
	if err := authz.Authorize(caller, authz.OpPurchaseItem); err != nil {
		return nil, err
	}
	if !s.items.ValidID(id) {
		return nil, domain.ErrInvalidID
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	qty := int(*in.Quantity)

	release, err := s.claim(ctx, caller, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	item, err := s.items.DecrementStock(ctx, id, qty)
	if err != nil {
		release()
		return nil, err
	}

	s.record(item, domain.MovementPurchase, qty, caller)
	return item, nil
}

// Restock adds stock with a single atomic increment.
func (s *ItemService) Restock(ctx context.Context, caller domain.Identity, id string, in ports.StockChangeInput) (*domain.Item, error) {
	if err := authz.Authorize(caller, authz.OpRestockItem); err != nil {
		return nil, err
	}
	if !s.items.ValidID(id) {
		return nil, domain.ErrInvalidID
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	qty := int(*in.Quantity)

	item, err := s.items.IncrementStock(ctx, id, qty)
	if err != nil {
		return nil, err
	}

	s.record(item, domain.MovementRestock, qty, caller)
	return item, nil
}

// claim reserves an idempotency key for the caller. The returned func frees
// the key again and is a no-op when nothing was claimed. Store failures are
// logged and the purchase goes ahead.
func (s *ItemService) claim(ctx context.Context, caller domain.Identity, key string) (func(), error) {
	noop := func() {}
	if key == "" || s.guard == nil {
		return noop, nil
	}

	scoped := caller.UserID + ":" + key
	ok, err := s.guard.Claim(ctx, scoped)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency check failed, processing anyway")
		return noop, nil
	}
	if !ok {
		s.log.Info().Str("idempotency_key", key).Str("actor", caller.UserID).Msg("duplicate purchase rejected")
		return nil, domain.ErrDuplicateRequest
	}

	return func() {
		if err := s.guard.Release(ctx, scoped); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
		}
	}, nil
}

func (s *ItemService) record(item *domain.Item, kind domain.MovementKind, qty int, caller domain.Identity) {
	if s.movements == nil {
		return
	}
	s.movements.Enqueue(domain.StockMovement{
		ItemID:    item.ID,
		Kind:      kind,
		Quantity:  qty,
		Remaining: item.Quantity,
		ActorID:   caller.UserID,
		At:        item.UpdatedAt,
	})
}
