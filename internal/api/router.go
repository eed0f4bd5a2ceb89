package api

import (
	"context"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/stockroom/storefront/docs"
	"github.com/stockroom/storefront/internal/api/handler"
	"github.com/stockroom/storefront/internal/api/middleware"
	"github.com/stockroom/storefront/internal/core/authz"
	"github.com/stockroom/storefront/internal/core/service"
	"github.com/stockroom/storefront/internal/infrastructure/db"
)

// Deps carries everything the router wires into handlers. Guard, Movements
// and Redis are optional and must be left nil (untyped) when disabled.
type Deps struct {
	Store     *db.Store
	Tokens    *service.TokenService
	Guard     service.IdempotencyGuard
	Movements service.MovementQueue
	Redis     *redis.Client
	Log       zerolog.Logger

	// SecureCookies marks the auth cookie Secure (production).
	SecureCookies bool
	// Registerer receives the HTTP request metrics. Defaults to the
	// prometheus default registerer.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log.With().Str("component", "http").Logger()))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "storefront",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(middleware.Identify(authz.NewGate(d.Tokens)))

	// --- Dependencies ---
	authService := service.NewAuthService(d.Store.Users, d.Tokens, d.Log.With().Str("component", "auth").Logger())
	itemService := service.NewItemService(d.Store.Items, d.Guard, d.Movements, d.Log.With().Str("component", "items").Logger())
	authHandler := handler.NewAuthHandler(authService, d.SecureCookies)
	itemHandler := handler.NewItemHandler(itemService)

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me, middleware.RBAC(authz.OpReadProfile))

	// --- Item routes ---
	items := api.Group("/items")
	items.GET("", itemHandler.List, middleware.RBAC(authz.OpListItems))
	items.GET("/:id", itemHandler.Get, middleware.RBAC(authz.OpReadItem))
	items.POST("", itemHandler.Create, middleware.RBAC(authz.OpCreateItem))
	items.PUT("/:id", itemHandler.Update, middleware.RBAC(authz.OpUpdateItem))
	items.DELETE("/:id", itemHandler.Delete, middleware.RBAC(authz.OpDeleteItem))
	items.POST("/:id/purchase", itemHandler.Purchase, middleware.RBAC(authz.OpPurchaseItem))
	items.POST("/:id/restock", itemHandler.Restock, middleware.RBAC(authz.OpRestockItem))

	// --- Health probes (no auth required) ---
	checks := []handler.DependencyCheck{{Name: d.Store.Driver, Check: d.Store.Ping}}
	if d.Redis != nil {
		checks = append(checks, handler.DependencyCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return d.Redis.Ping(ctx).Err()
			},
		})
	}
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(checks...)

	e.GET("/health", healthHandler.Liveness)           // liveness: is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
