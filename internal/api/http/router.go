package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Roles          *handlers.RolesHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	api := app.Group("/api")
	authenticated := cfg.AuthMiddleware.Handle
	adminOnly := auth.RequireRole(domain.RoleNameAdmin)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/me", authenticated, auth.RequireAuthenticated(), cfg.Auth.Me)

	users := api.Group("/users", authenticated)
	users.Get("/list", adminOnly, cfg.Users.List)
	users.Get("/details/:id", auth.RequireAuthenticated(), cfg.Users.Details)
	users.Post("/create", adminOnly, cfg.Users.Create)
	users.Put("/update/:id", adminOnly, cfg.Users.Update)
	users.Get("/:id/logins", adminOnly, cfg.Users.LoginHistory)
	users.Get("/:id/audit", adminOnly, cfg.Users.AuditTrail)

	api.Get("/roles", authenticated, adminOnly, cfg.Roles.List)
	api.Delete("/roles/:id", authenticated, adminOnly, cfg.Roles.Delete)
}
