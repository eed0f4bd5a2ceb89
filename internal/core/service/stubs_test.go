package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/stockroom/storefront/internal/core/domain"
)

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

// stubItemRepo emulates the store's conditional update with a mutex.
type stubItemRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Item
	seq   int
	calls int
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[string]*domain.Item)}
}

func cloneItem(it *domain.Item) *domain.Item {
	clone := *it
	return &clone
}

func (r *stubItemRepo) seed(item domain.Item) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	item.ID = fmt.Sprintf("item-%d", r.seq)
	r.items[item.ID] = &item
	return item.ID
}

func (r *stubItemRepo) quantity(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Quantity
}

func (r *stubItemRepo) ValidID(id string) bool {
	return strings.HasPrefix(id, "item-")
}

func (r *stubItemRepo) List(_ context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := []domain.Item{}
	for _, it := range r.items {
		if f.Name != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.Category != "" && !strings.Contains(strings.ToLower(it.Category), strings.ToLower(f.Category)) {
			continue
		}
		if f.MinPrice != nil && it.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && it.Price > *f.MaxPrice {
			continue
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if it, ok := r.items[id]; ok {
		return cloneItem(it), nil
	}
	return nil, domain.ErrItemNotFound
}

func (r *stubItemRepo) Create(_ context.Context, item *domain.Item) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.seq++
	created := cloneItem(item)
	created.ID = fmt.Sprintf("item-%d", r.seq)
	r.items[created.ID] = cloneItem(created)
	return created, nil
}

func (r *stubItemRepo) Update(_ context.Context, id string, p domain.ItemPatch) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.Description != nil {
		it.Description = p.Description
	}
	if p.ImageURL != nil {
		it.ImageURL = p.ImageURL
	}
	return cloneItem(it), nil
}

func (r *stubItemRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if _, ok := r.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubItemRepo) DecrementStock(_ context.Context, id string, qty int) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if it.Quantity < qty {
		return nil, domain.ErrInsufficientStock
	}
	it.Quantity -= qty
	return cloneItem(it), nil
}

func (r *stubItemRepo) IncrementStock(_ context.Context, id string, qty int) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	it.Quantity += qty
	return cloneItem(it), nil
}

type stubGuard struct {
	mu       sync.Mutex
	claimed  map[string]bool
	released []string
	err      error
}

func newStubGuard() *stubGuard {
	return &stubGuard{claimed: make(map[string]bool)}
}

func (g *stubGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.claimed[key] {
		return false, nil
	}
	g.claimed[key] = true
	return true, nil
}

func (g *stubGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, key)
	g.released = append(g.released, key)
	return nil
}

type stubMovements struct {
	mu  sync.Mutex
	got []domain.StockMovement
}

func (q *stubMovements) Enqueue(m domain.StockMovement) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.got = append(q.got, m)
}

func (q *stubMovements) all() []domain.StockMovement {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.StockMovement(nil), q.got...)
}
