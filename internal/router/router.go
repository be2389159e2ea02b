package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-mobile-core/internal/config"
	"github.com/noah-isme/gema-mobile-core/internal/handler"
	"github.com/noah-isme/gema-mobile-core/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	SyncHandler       *handler.SyncHandler
	DraftHandler      *handler.DraftHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments")
		deps.AssignmentHandler.Register(assignments)

		if deps.SubmissionHandler != nil {
			deps.SubmissionHandler.RegisterAssignmentRoutes(assignments)
			deps.SubmissionHandler.Register(api.Group("/submissions"))
		}
	}

	if deps.SyncHandler != nil {
		deps.SyncHandler.Register(api.Group("/sync"))
	}

	if deps.DraftHandler != nil {
		deps.DraftHandler.Register(api.Group("/drafts"))
	}
}
