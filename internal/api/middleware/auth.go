package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/storefront/internal/core/domain"
)

const (
	// CookieName carries the identity assertion for browser clients.
	CookieName = "auth-token"

	identityKey = "identity"
)

// IdentityResolver turns a raw assertion into a caller identity.
type IdentityResolver interface {
	ResolveIdentity(assertion string) domain.Identity
}

// Identify resolves the caller from the auth cookie, then from an
// "Authorization: Bearer" header when the cookie is absent or does not
// resolve, and stores the identity on the context.
// It never rejects a request: a missing or invalid assertion yields the
// anonymous identity and the decision is left to RBAC and the services.
func Identify(resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(identityKey, identify(c, resolver))
			return next(c)
		}
	}
}

func identify(c echo.Context, resolver IdentityResolver) domain.Identity {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		if id := resolver.ResolveIdentity(cookie.Value); !id.Anonymous() {
			return id
		}
	}
	return resolver.ResolveIdentity(bearerToken(c))
}

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentIdentity returns the identity set by Identify, or the anonymous
// identity when the middleware did not run.
func CurrentIdentity(c echo.Context) domain.Identity {
	id, _ := c.Get(identityKey).(domain.Identity)
	return id
}
