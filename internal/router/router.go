package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/loom-academy/loom-go-api/internal/config"
	"github.com/loom-academy/loom-go-api/internal/handler"
	"github.com/loom-academy/loom-go-api/internal/middleware"
	"github.com/loom-academy/loom-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler            *handler.ActivityHandler
	InstructorAnalyticsHandler *handler.InstructorAnalyticsHandler
	JWTMiddleware              fiber.Handler
	RateLimitMiddleware        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided middlewares, or no-ops if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	rateLimit := deps.RateLimitMiddleware
	if rateLimit == nil {
		rateLimit = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Activity recording (sensitive, high-frequency, rate limited)
	if deps.ActivityHandler != nil {
		activity := app.Group("/api/v2/activity", jwtMiddleware, rateLimit)
		deps.ActivityHandler.Register(activity)

		adminActivity := app.Group("/api/v2/admin/activity", jwtMiddleware, middleware.RequireRole("admin"))
		deps.ActivityHandler.RegisterAdmin(adminActivity)
	}

	// Instructor revenue dashboard
	if deps.InstructorAnalyticsHandler != nil {
		instructor := app.Group("/api/v2/instructor", jwtMiddleware, middleware.RequireRole("instructor", "admin"))
		deps.InstructorAnalyticsHandler.Register(instructor)
	}
}
