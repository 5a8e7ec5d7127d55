package health

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the health API routes with the Fiber application.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	healthGroup := app.Group("/api/v1")

	healthGroup.Get("/health", handler.Health)
}
