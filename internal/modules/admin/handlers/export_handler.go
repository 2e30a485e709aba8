package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/export"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/modules/admin/services"
)

type ExportHandler struct {
	exports *services.ExportService
	reports *services.ReportService
}

func NewExportHandler(exports *services.ExportService, reports *services.ReportService) *ExportHandler {
	return &ExportHandler{exports: exports, reports: reports}
}

// Export godoc
// @Summary Export an entity
// @Description Download users, resumes, admins, activity or the statistics report as csv, excel, json or pdf
// @Tags Export
// @Produce octet-stream
// @Param entity query string true "users, resumes, admins, activity or report"
// @Param format query string false "csv, excel, json or pdf" default(csv)
// @Param range query string false "Only rows created in this period"
// @Param status query string false "Status filter"
// @Param role query string false "Role filter (users, admins)"
// @Param template query string false "Template filter (resumes)"
// @Param action query string false "Action filter (activity)"
// @Success 200 {file} file
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /export [get]
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return h.fail(c, err)
	}
	req.Entity = c.Query("entity")
	if req.Entity == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entity is required"})
	}

	res, err := h.exports.Export(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}

	return sendDocument(c, res)
}

// ExportBundle godoc
// @Summary Export several entities as one zip
// @Tags Export
// @Produce application/zip
// @Param entities query string true "Comma separated entities"
// @Param format query string false "csv, excel, json or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /export/bundle [get]
func (h *ExportHandler) ExportBundle(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	entities := splitList(c.Query("entities"))
	if len(entities) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "entities is required"})
	}

	res, err := h.exports.Bundle(c.UserContext(), entities, req)
	if err != nil {
		return h.fail(c, err)
	}

	return sendDocument(c, res)
}

func (h *ExportHandler) parseRequest(c *fiber.Ctx) (services.ExportRequest, error) {
	format, err := export.ParseFormat(c.Query("format", string(export.FormatCSV)))
	if err != nil {
		return services.ExportRequest{}, err
	}

	req := services.ExportRequest{
		Format:   format,
		Status:   c.Query("status"),
		Role:     c.Query("role"),
		Template: c.Query("template"),
		Action:   c.Query("action"),
	}

	if c.Query("range") != "" || c.Query("startDate") != "" || c.Query("endDate") != "" {
		tr, err := h.reports.ResolveRange(c.Query("range"), c.Query("startDate"), c.Query("endDate"))
		if err != nil {
			return services.ExportRequest{}, err
		}
		req.Range = &tr
	}

	return req, nil
}

func (h *ExportHandler) fail(c *fiber.Ctx, err error) error {
	var (
		formatErr *export.UnsupportedFormatError
		entityErr *services.UnknownEntityError
		rangeErr  *analytics.InvalidRangeError
	)

	switch {
	case errors.As(err, &formatErr), errors.As(err, &entityErr), errors.As(err, &rangeErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, export.ErrEmptyExport):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func sendDocument(c *fiber.Ctx, res *services.ExportResult) error {
	c.Set(fiber.HeaderContentType, res.Document.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	return c.Send(res.Document.Body)
}
