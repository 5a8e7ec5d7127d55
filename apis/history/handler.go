package history

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ishaanzatey/incident-handler/pkg/recorder"
)

// DefaultLimit bounds read queries when no limit is supplied.
const DefaultLimit = 100

// Handler serves the dashboard's read-only audit queries.
type Handler struct {
	recorder recorder.Recorder
}

// NewHandler creates a history handler over the given recorder.
func NewHandler(rec recorder.Recorder) *Handler {
	return &Handler{recorder: rec}
}

// History returns recent incident processing outcomes, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", DefaultLimit)

	outcomes, err := h.recorder.RecentOutcomes(c.Context(), limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(outcomes)
}

// Logs returns recent execution events, newest first.
func (h *Handler) Logs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", DefaultLimit)

	events, err := h.recorder.RecentEvents(c.Context(), limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(events)
}

// Statistics returns the aggregate processing counters.
func (h *Handler) Statistics(c *fiber.Ctx) error {
	stats, err := h.recorder.Statistics(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(stats)
}
