package domain

import "time"

// TokenLifetime is how long an issued identity assertion stays valid.
// Assertions are never refreshed.
const TokenLifetime = 7 * 24 * time.Hour

// Claims is the payload carried by a signed identity assertion.
type Claims struct {
	UserID    string
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// Identity is the caller resolved for a single request.
// The zero value is the anonymous caller.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// Anonymous reports whether no valid assertion was presented.
func (i Identity) Anonymous() bool {
	return i.UserID == "" || !i.Role.Valid()
}

// IdentityFromClaims converts verified claims into the caller identity.
func IdentityFromClaims(c Claims) Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Role: c.Role}
}
