package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/metrics"
)

// Handlers groups every admin reporting handler
type Handlers struct {
	Health    *HealthHandler
	Dashboard *DashboardHandler
	Export    *ExportHandler
	Metrics   *metrics.Manager
}

// RegisterRoutes mounts the reporting API on app
func RegisterRoutes(app *fiber.App, h Handlers) {
	// Health check
	app.Get("/health", h.Health.GetHealth)

	// Prometheus
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.Metrics.Handler()))
	}

	// Dashboard routes
	dashboard := app.Group("/dashboard")
	dashboard.Get("/stats", h.Dashboard.GetStats)
	dashboard.Get("/widgets", h.Dashboard.GetWidgets)

	// Export routes
	app.Get("/export", h.Export.Export)
	app.Get("/export/bundle", h.Export.ExportBundle)
}
