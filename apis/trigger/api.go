package trigger

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ishaanzatey/incident-handler/pkg/logger"
	"github.com/ishaanzatey/incident-handler/pkg/pipeline"
)

// Handler serves manual pipeline triggers.
type Handler struct {
	runner *pipeline.Runner
}

// NewHandler creates a trigger handler for the given runner.
func NewHandler(runner *pipeline.Runner) *Handler {
	return &Handler{runner: runner}
}

// Run starts a pipeline run in the background and returns immediately.
// A run already in progress yields 409; progress is observable on the
// live stream and in the audit endpoints.
func (h *Handler) Run(c *fiber.Ctx) error {
	if h.runner.Running() {
		return fiber.NewError(fiber.StatusConflict, pipeline.ErrRunInProgress.Error())
	}

	go func() {
		if _, err := h.runner.Run(context.Background()); err != nil {
			logger.Errorf("Manually triggered run failed: %v", err)
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "pipeline run started",
	})
}

// RegisterRoutes registers the manual trigger route with the Fiber
// application.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	group := app.Group("/api/v1")

	group.Post("/run", handler.Run)
}
