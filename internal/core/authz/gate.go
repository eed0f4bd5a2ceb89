// Package authz decides whether a caller may perform an operation.
//
// The decision depends only on the caller's identity and the operation:
//
//	operation                 anonymous  USER  ADMIN
//	list / read item          allow      allow allow
//	create / update / delete  401        403   allow
//	restock                   401        403   allow
//	purchase                  401        allow allow
//	read own profile          401        allow allow
package authz

import (
	"github.com/stockroom/storefront/internal/core/domain"
)

// Operation is a guarded storefront action.
type Operation int

const (
	OpListItems Operation = iota
	OpReadItem
	OpCreateItem
	OpUpdateItem
	OpDeleteItem
	OpPurchaseItem
	OpRestockItem
	OpReadProfile
)

var opNames = map[Operation]string{
	OpListItems:    "list_items",
	OpReadItem:     "read_item",
	OpCreateItem:   "create_item",
	OpUpdateItem:   "update_item",
	OpDeleteItem:   "delete_item",
	OpPurchaseItem: "purchase_item",
	OpRestockItem:  "restock_item",
	OpReadProfile:  "read_profile",
}

func (o Operation) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "unknown"
}

type requirement struct {
	authenticated bool
	role          domain.Role // empty: any authenticated role
}

var matrix = map[Operation]requirement{
	OpListItems:    {},
	OpReadItem:     {},
	OpCreateItem:   {authenticated: true, role: domain.RoleAdmin},
	OpUpdateItem:   {authenticated: true, role: domain.RoleAdmin},
	OpDeleteItem:   {authenticated: true, role: domain.RoleAdmin},
	OpRestockItem:  {authenticated: true, role: domain.RoleAdmin},
	OpPurchaseItem: {authenticated: true},
	OpReadProfile:  {authenticated: true},
}

// Authorize returns nil, domain.ErrUnauthorized or domain.ErrForbidden.
// Unknown operations are denied.
func Authorize(caller domain.Identity, op Operation) error {
	req, ok := matrix[op]
	if !ok {
		return domain.ErrForbidden
	}
	if !req.authenticated {
		return nil
	}
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if req.role != "" {
		return RequireRole(caller, req.role)
	}
	return nil
}

// RequireAuthenticated fails for the anonymous caller.
func RequireAuthenticated(caller domain.Identity) error {
	if caller.Anonymous() {
		return domain.ErrUnauthorized
	}
	return nil
}

// RequireRole fails with domain.ErrUnauthorized for anonymous callers and
// domain.ErrForbidden when the role does not match.
func RequireRole(caller domain.Identity, role domain.Role) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.Role != role {
		return domain.ErrForbidden
	}
	return nil
}

// TokenVerifier checks a signed identity assertion.
type TokenVerifier interface {
	Verify(token string) (domain.Claims, bool)
}

// Gate turns request assertions into caller identities.
type Gate struct {
	tokens TokenVerifier
}

func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// ResolveIdentity never fails: a missing or invalid assertion yields the
// anonymous identity.
func (g *Gate) ResolveIdentity(assertion string) domain.Identity {
	if assertion == "" {
		return domain.Identity{}
	}
	claims, ok := g.tokens.Verify(assertion)
	if !ok {
		return domain.Identity{}
	}
	return domain.IdentityFromClaims(claims)
}
