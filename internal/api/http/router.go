package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sunbase/customer-service/internal/api/http/handlers"
	"github.com/sunbase/customer-service/internal/auth"
	"github.com/sunbase/customer-service/internal/domain"
	"github.com/sunbase/customer-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Customers *handlers.CustomersHandler
	Filter    *auth.Filter
	Metrics   *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	app.Post("/auth/login", cfg.Auth.Login)

	customers := app.Group("/customers", cfg.Filter.Handle, auth.RequireAuthenticated())
	customers.Post("", cfg.Customers.Create)
	customers.Get("", cfg.Customers.List)
	customers.Get("/search", cfg.Customers.Search)
	customers.Post("/sync", auth.RequireAuthority(domain.AuthorityAdmin), cfg.Customers.Sync)
	customers.Get("/:id", cfg.Customers.Get)
	customers.Put("/:id", cfg.Customers.Update)
	customers.Delete("/:id", cfg.Customers.Delete)
}
