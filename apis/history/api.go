package history

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the audit query API routes with the Fiber
// application.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	group := app.Group("/api/v1")

	group.Get("/history", handler.History)
	group.Get("/logs", handler.Logs)
	group.Get("/statistics", handler.Statistics)
}
