package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ishaanzatey/incident-handler/apis/health"
	"github.com/ishaanzatey/incident-handler/apis/history"
	"github.com/ishaanzatey/incident-handler/apis/stream"
	"github.com/ishaanzatey/incident-handler/apis/trigger"
	"github.com/ishaanzatey/incident-handler/internal/version"
	"github.com/ishaanzatey/incident-handler/pkg/broadcaster"
	"github.com/ishaanzatey/incident-handler/pkg/pipeline"
	"github.com/ishaanzatey/incident-handler/pkg/recorder"
)

// SetupRoutes configures all HTTP routes for the incident handler server.
// The trigger API is only registered when a pipeline runner exists (the
// rule database may be unavailable); the audit and stream surfaces are
// always served.
func SetupRoutes(app *fiber.App, rec recorder.Recorder, hub *broadcaster.Hub, runner *pipeline.Runner) {
	health.RegisterRoutes(app, health.NewHandler(rec, hub))
	history.RegisterRoutes(app, history.NewHandler(rec))
	stream.RegisterRoutes(app, hub)

	if runner != nil {
		trigger.RegisterRoutes(app, trigger.NewHandler(runner))
	}

	app.Get("/", RootHandler)
}

// RootHandler handles requests to the root endpoint ("/").
// It returns basic server information and a pointer to the health probe.
func RootHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Incident Handler Dashboard",
		"version": version.GetShortVersion(),
		"docs":    "/api/v1/health",
	})
}
