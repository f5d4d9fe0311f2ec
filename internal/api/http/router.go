package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-service/internal/api/http/handlers"
	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	AdminUsers *handlers.AdminUsersHandler
	Facilities *handlers.FacilitiesHandler
	Bookings   *handlers.BookingsHandler
	Guard      *auth.Guard
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	guard := cfg.Guard
	staff := guard.RoleRequired(domain.Staff...)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", staff, cfg.Health.Metrics)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", guard.Authenticated(), cfg.Auth.Me)
	authGroup.Post("/password", guard.Authenticated(), cfg.Auth.ChangePassword)

	api.Get("/facilities", guard.Authenticated(), cfg.Facilities.List)
	api.Post("/facilities", staff, cfg.Facilities.Create)

	bookings := api.Group("/bookings", guard.RoleRequired(domain.AllRoles...))
	bookings.Post("/", cfg.Bookings.Create)
	bookings.Get("/mine", cfg.Bookings.ListMine)
	bookings.Post("/:id/cancel", cfg.Bookings.Cancel)

	admin := api.Group("/admin", staff)
	admin.Get("/users", cfg.AdminUsers.List)
	admin.Patch("/users/:id/status", cfg.AdminUsers.SetStatus)
	admin.Patch("/users/:id/role", guard.RoleRequired(domain.RoleSuperAdmin), cfg.AdminUsers.SetRole)
	admin.Get("/bookings", cfg.Bookings.AdminList)
	admin.Patch("/bookings/:id/status", cfg.Bookings.SetStatus)
}
