package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/modules/admin/services"
)

type DashboardHandler struct {
	reports *services.ReportService
	widgets *services.WidgetService
}

func NewDashboardHandler(reports *services.ReportService, widgets *services.WidgetService) *DashboardHandler {
	return &DashboardHandler{reports: reports, widgets: widgets}
}

// GetStats godoc
// @Summary Dashboard statistics
// @Description Build the full dashboard report for a period token or explicit dates
// @Tags Dashboard
// @Produce json
// @Param range query string false "24h, 7d, 30d, 90d or 1y" default(30d)
// @Param startDate query string false "Explicit start (YYYY-MM-DD or RFC3339)"
// @Param endDate query string false "Explicit end (YYYY-MM-DD or RFC3339)"
// @Success 200 {object} services.Report
// @Failure 400 {object} map[string]interface{}
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	tr, err := h.resolveRange(c)
	if err != nil {
		return rangeError(c, err)
	}

	report := h.reports.Build(c.UserContext(), tr)
	return c.JSON(report)
}

// GetWidgets godoc
// @Summary Dashboard widgets
// @Description Evaluate only the requested widgets. Unknown ids come back as {"error": "unknown widget: <id>"}
// @Tags Dashboard
// @Produce json
// @Param ids query string true "Comma separated widget ids"
// @Param range query string false "24h, 7d, 30d, 90d or 1y" default(30d)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /dashboard/widgets [get]
func (h *DashboardHandler) GetWidgets(c *fiber.Ctx) error {
	ids := splitList(c.Query("ids"))
	if len(ids) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "ids is required",
			"available": h.widgets.Registry().IDs(),
		})
	}

	tr, err := h.resolveRange(c)
	if err != nil {
		return rangeError(c, err)
	}

	return c.JSON(h.widgets.Compose(c.UserContext(), ids, tr))
}

func (h *DashboardHandler) resolveRange(c *fiber.Ctx) (analytics.TimeRange, error) {
	return h.reports.ResolveRange(c.Query("range"), c.Query("startDate"), c.Query("endDate"))
}

func rangeError(c *fiber.Ctx, err error) error {
	var rangeErr *analytics.InvalidRangeError
	if errors.As(err, &rangeErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": rangeErr.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// splitList splits a comma separated query value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
