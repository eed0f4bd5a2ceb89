package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stockroom/storefront/internal/core/domain"
	"github.com/stockroom/storefront/internal/core/ports"
)

var (
	testAdmin    = domain.Identity{UserID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
	testCustomer = domain.Identity{UserID: "user-1", Email: "user@example.com", Role: domain.RoleUser}
)

func ptr[T any](v T) *T { return &v }

func qty(n float64) ports.StockChangeInput {
	return ports.StockChangeInput{Quantity: &n}
}

func newTestItemService() (*ItemService, *stubItemRepo, *stubGuard, *stubMovements) {
	repo := newStubItemRepo()
	guard := newStubGuard()
	moves := &stubMovements{}
	return NewItemService(repo, guard, moves, zerolog.Nop()), repo, guard, moves
}

func TestItemService_Create(t *testing.T) {
	svc, repo, _, _ := newTestItemService()
	in := ports.CreateItemInput{Name: "Fudge", Category: "Candy", Price: ptr(2.5), Quantity: ptr(10.0)}

	item, err := svc.Create(context.Background(), testAdmin, in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if item.ID == "" || item.Quantity != 10 || item.Price != 2.5 {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.CreatedAt.IsZero() || !item.CreatedAt.Equal(item.UpdatedAt) {
		t.Fatalf("timestamps not set: %+v", item)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected 1 stored item, got %d", len(repo.items))
	}
}

func TestItemService_Create_DeniedCallersStoreNothing(t *testing.T) {
	svc, repo, _, _ := newTestItemService()
	in := ports.CreateItemInput{Name: "Fudge", Category: "Candy", Price: ptr(2.5), Quantity: ptr(10.0)}

	if _, err := svc.Create(context.Background(), testCustomer, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Create(context.Background(), domain.Identity{}, in); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if repo.calls != 0 || len(repo.items) != 0 {
		t.Fatalf("store must not be touched by denied callers")
	}
}

func TestItemService_AuthorizationPrecedesValidation(t *testing.T) {
	svc, _, _, _ := newTestItemService()

	if _, err := svc.Create(context.Background(), testCustomer, ports.CreateItemInput{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden before validation, got %v", err)
	}
	if _, err := svc.Restock(context.Background(), domain.Identity{}, "bogus", ports.StockChangeInput{}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized before id check, got %v", err)
	}
}

func TestItemService_InvalidID(t *testing.T) {
	svc, repo, _, _ := newTestItemService()
	ctx := context.Background()

	if _, err := svc.Get(ctx, "not-an-id"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("Get: expected ErrInvalidID, got %v", err)
	}
	if _, err := svc.Purchase(ctx, testCustomer, "not-an-id", ports.StockChangeInput{}); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("Purchase: expected ErrInvalidID before validation, got %v", err)
	}
	if err := svc.Delete(ctx, testAdmin, "not-an-id"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("Delete: expected ErrInvalidID, got %v", err)
	}
	if svc.ValidID("not-an-id") {
		t.Fatalf("ValidID accepted a malformed id")
	}
	if repo.calls != 0 {
		t.Fatalf("store must not be touched for invalid ids")
	}
}

func TestItemService_GetAndDeleteNotFound(t *testing.T) {
	svc, _, _, _ := newTestItemService()
	ctx := context.Background()

	if _, err := svc.Get(ctx, "item-404"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, testAdmin, "item-404"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestItemService_Update(t *testing.T) {
	svc, repo, _, _ := newTestItemService()
	ctx := context.Background()
	id := repo.seed(domain.Item{Name: "Fudge", Category: "Candy", Price: 2, Quantity: 5})

	if _, err := svc.Update(ctx, testAdmin, id, ports.UpdateItemInput{}); !errors.Is(err, domain.ErrEmptyUpdate) {
		t.Fatalf("expected ErrEmptyUpdate, got %v", err)
	}

	var ve *domain.ValidationError
	if _, err := svc.Update(ctx, testAdmin, id, ports.UpdateItemInput{Price: ptr(0.0)}); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}

	item, err := svc.Update(ctx, testAdmin, id, ports.UpdateItemInput{Price: ptr(3.5), Quantity: ptr(8.0)})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if item.Price != 3.5 || item.Quantity != 8 || item.Name != "Fudge" {
		t.Fatalf("unexpected item after update: %+v", item)
	}

	if _, err := svc.Update(ctx, testAdmin, "item-404", ports.UpdateItemInput{Name: ptr("x")}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestItemService_List(t *testing.T) {
	svc, repo, _, _ := newTestItemService()
	repo.seed(domain.Item{Name: "Toffee", Category: "Candy", Price: 4})
	repo.seed(domain.Item{Name: "Brownie", Category: "Bakery", Price: 3})
	repo.seed(domain.Item{Name: "Caramel", Category: "Candy", Price: 6})

	items, err := svc.List(context.Background(), ports.ListItemsInput{Category: "cand", MaxPrice: ptr(5.0)})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Toffee" {
		t.Fatalf("unexpected items: %+v", items)
	}

	if _, err := svc.List(context.Background(), ports.ListItemsInput{MinPrice: ptr(-1.0)}); err == nil {
		t.Fatalf("expected validation error for negative price bound")
	}
}

func TestItemService_PurchaseSequence(t *testing.T) {
	svc, repo, _, moves := newTestItemService()
	ctx := context.Background()
	id := repo.seed(domain.Item{Name: "Fudge", Category: "Candy", Price: 2, Quantity: 5})

	item, err := svc.Purchase(ctx, testCustomer, id, qty(3))
	if err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}
	if item.Quantity != 2 {
		t.Fatalf("expected 2 remaining, got %d", item.Quantity)
	}

	if _, err := svc.Purchase(ctx, testCustomer, id, qty(3)); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := repo.quantity(id); got != 2 {
		t.Fatalf("failed purchase changed stock: %d", got)
	}

	recorded := moves.all()
	if len(recorded) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(recorded))
	}
	if m := recorded[0]; m.Kind != domain.MovementPurchase || m.Quantity != 3 || m.Remaining != 2 || m.ActorID != testCustomer.UserID {
		t.Fatalf("unexpected movement: %+v", m)
	}
}

func TestItemService_RestockThenPurchase(t *testing.T) {
	svc, repo, _, moves := newTestItemService()
	ctx := context.Background()
	id := repo.seed(domain.Item{Name: "Fudge", Category: "Candy", Price: 2, Quantity: 0})

	if _, err := svc.Purchase(ctx, testCustomer, id, qty(1)); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock on empty stock, got %v", err)
	}

	if _, err := svc.Restock(ctx, testCustomer, id, qty(50)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for customer restock, got %v", err)
	}

	item, err := svc.Restock(ctx, testAdmin, id, qty(50))
	if err != nil || item.Quantity != 50 {
		t.Fatalf("restock: item %+v, err %v", item, err)
	}

	item, err = svc.Purchase(ctx, testCustomer, id, qty(10))
	if err != nil || item.Quantity != 40 {
		t.Fatalf("purchase: item %+v, err %v", item, err)
	}

	if n := len(moves.all()); n != 2 {
		t.Fatalf("expected 2 movements, got %d", n)
	}
}

func TestItemService_ConcurrentPurchases(t *testing.T) {
	svc, repo, _, _ := newTestItemService()
	id := repo.seed(domain.Item{Name: "Fudge", Category: "Candy", Price: 2, Quantity: 10})

	const buyers = 25
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Purchase(context.Background(), testCustomer, id, qty(1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 10 || rejected != buyers-10 {
		t.Fatalf("expected 10 successes and %d rejections, got %d / %d", buyers-10, ok, rejected)
	}
	if got := repo.quantity(id); got != 0 {
		t.Fatalf("expected final stock 0, got %d", got)
	}
}

func TestItemService_PurchaseIdempotency(t *testing.T) {
	svc, repo, guard, _ := newTestItemService()
	ctx := context.Background()
	id := repo.seed(domain.Item{Name: "Fudge", Category: "Candy", Price: 2, Quantity: 5})

	in := qty(1)
	in.IdempotencyKey = "order-1"
	if _, err := svc.Purchase(ctx, testCustomer, id, in); err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}
	if _, err := svc.Purchase(ctx, testCustomer, id, in); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
	if got := repo.quantity(id); got != 4 {
		t.Fatalf("duplicate purchase must not change stock, got %d", got)
	}

	other := testCustomer
	other.UserID = "user-2"
	if _, err := svc.Purchase(ctx, other, id, in); err != nil {
		t.Fatalf("same key from another user should be accepted: %v", err)
	}

	failing := qty(100)
	failing.IdempotencyKey = "order-2"
	if _, err := svc.Purchase(ctx, testCustomer, id, failing); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if len(guard.released) != 1 || guard.released[0] != testCustomer.UserID+":order-2" {
		t.Fatalf("failed purchase should release its key, released=%v", guard.released)
	}
}

func TestItemService_PurchaseProceedsWhenGuardFails(t *testing.T) {
	svc, repo, guard, _ := newTestItemService()
	guard.err = errors.New("redis down")
	id := repo.seed(domain.Item{Name: "Fudge", Category: "Candy", Price: 2, Quantity: 5})

	in := qty(2)
	in.IdempotencyKey = "order-1"
	item, err := svc.Purchase(context.Background(), testCustomer, id, in)
	if err != nil || item.Quantity != 3 {
		t.Fatalf("purchase should proceed without the guard: item %+v, err %v", item, err)
	}
}

func TestItemService_NilCollaborators(t *testing.T) {
	repo := newStubItemRepo()
	svc := NewItemService(repo, nil, nil, zerolog.Nop())
	id := repo.seed(domain.Item{Name: "Fudge", Category: "Candy", Price: 2, Quantity: 5})

	in := qty(1)
	in.IdempotencyKey = "ignored"
	if _, err := svc.Purchase(context.Background(), testCustomer, id, in); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
}
