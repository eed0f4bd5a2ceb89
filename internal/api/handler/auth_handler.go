package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/storefront/internal/api/metrics"
	"github.com/stockroom/storefront/internal/api/middleware"
	"github.com/stockroom/storefront/internal/core/domain"
	"github.com/stockroom/storefront/internal/core/ports"
)

type AuthHandler struct {
	authService   ports.AuthService
	secureCookies bool
}

// NewAuthHandler returns an AuthHandler. secureCookies marks the auth cookie
// Secure and should be set in production.
func NewAuthHandler(authService ports.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies}
}

// Register creates a new user account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ports.RegisterInput  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorEnvelope
// @Failure      409   {object}  errorEnvelope
// @Failure      500   {object}  errorEnvelope
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterInput
	if err := bindBody(c, &req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "failed").Inc()
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "failed").Inc()
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("register", "ok").Inc()

	h.setToken(c, res.Token, domain.TokenLifetime)
	return c.JSON(http.StatusCreated, authResponse{User: res.User, Token: res.Token})
}

// Login authenticates a user and sets the auth cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ports.LoginInput  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorEnvelope
// @Failure      401   {object}  errorEnvelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginInput
	if err := bindBody(c, &req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failed").Inc()
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failed").Inc()
		return err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("login", "ok").Inc()

	h.setToken(c, res.Token, domain.TokenLifetime)
	return c.JSON(http.StatusOK, authResponse{User: res.User, Token: res.Token})
}

// Logout clears the auth cookie. Tokens are stateless, so a copied token
// stays valid until it expires.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.setToken(c, "", 0)
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Me returns the signed-in user's current record.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorEnvelope
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.authService.Profile(c.Request().Context(), caller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// setToken writes the auth cookie. A zero lifetime deletes it.
func (h *AuthHandler) setToken(c echo.Context, token string, lifetime time.Duration) {
	cookie := &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if lifetime > 0 {
		cookie.MaxAge = int(lifetime.Seconds())
		cookie.Expires = time.Now().Add(lifetime)
	} else {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}
	c.SetCookie(cookie)
}
