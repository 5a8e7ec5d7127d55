package health

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ishaanzatey/incident-handler/internal/version"
	"github.com/ishaanzatey/incident-handler/pkg/broadcaster"
	"github.com/ishaanzatey/incident-handler/pkg/recorder"
)

var startTime = time.Now()

// Handler serves health check requests.
type Handler struct {
	recorder recorder.Recorder
	hub      *broadcaster.Hub
}

// NewHandler creates a health handler reporting on the given recorder and hub.
func NewHandler(rec recorder.Recorder, hub *broadcaster.Hub) *Handler {
	return &Handler{recorder: rec, hub: hub}
}

// Health returns server status, audit-store mode, and subscriber count.
func (h *Handler) Health(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:            "healthy",
		Timestamp:         time.Now(),
		Version:           version.GetShortVersion(),
		Uptime:            time.Since(startTime).String(),
		DatabaseMode:      h.recorder.Mode(),
		ActiveConnections: h.hub.Count(),
	}

	return c.JSON(response)
}
