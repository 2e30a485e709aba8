package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
)

const pingTimeout = 2 * time.Second

type HealthHandler struct {
	pinger analytics.Pinger
}

func NewHealthHandler(pinger analytics.Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

// GetHealth godoc
// @Summary Service health check
// @Description Check if API is alive and the store answers a ping
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
		defer cancel()

		if err := h.pinger.PingContext(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "degraded",
				"service": "admin-api",
				"store":   "disconnected",
				"error":   err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "admin-api",
		"store":   "connected",
	})
}
