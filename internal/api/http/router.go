// Package http wires the Fiber routes and middlewares of the service.
package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/herobudget/notification-service/internal/api/http/handlers"
	"github.com/herobudget/notification-service/internal/observability"
)

// Form endpoint paths.
const (
	PathContact = "/api/contact"
	PathTicket  = "/api/ticket"
	PathPrivacy = "/api/send-privacy-email"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Submissions *handlers.SubmissionsHandler
	Metrics     *observability.Metrics
	// RateLimit guards the form endpoints; nil disables it.
	RateLimit fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	forms := []struct {
		path    string
		handler fiber.Handler
	}{
		{PathContact, cfg.Submissions.Contact},
		{PathTicket, cfg.Submissions.Ticket},
		{PathPrivacy, cfg.Submissions.PrivacyInquiry},
	}
	for _, f := range forms {
		post := []fiber.Handler{f.handler}
		if cfg.RateLimit != nil {
			post = []fiber.Handler{cfg.RateLimit, f.handler}
		}
		app.Post(f.path, post...)
		app.All(f.path, handlers.MethodNotAllowed)
	}
}
