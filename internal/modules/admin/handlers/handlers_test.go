package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/metrics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/modules/admin/models"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/modules/admin/services"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/middleware"
)

var testNow = time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*fiber.App, *analytics.MemoryRepository) {
	t.Helper()

	repo := analytics.NewMemoryRepository()
	models.GenerateDemo(testNow, 40, 7).Load(repo)

	m := metrics.NewManager()
	reports := services.NewReportService(repo, services.ReportOptions{
		Metrics: m,
		Now:     func() time.Time { return testNow },
	})
	widgets, err := services.NewWidgetService(reports, services.SectionOptions{}, m)
	require.NoError(t, err)
	exports := services.NewExportService(reports, 0, m)

	logger := zerolog.Nop()
	app := fiber.New()
	app.Use(middleware.Logger(&logger, m))
	RegisterRoutes(app, Handlers{
		Health:    NewHealthHandler(repo),
		Dashboard: NewDashboardHandler(reports, widgets),
		Export:    NewExportHandler(exports, reports),
		Metrics:   m,
	})

	return app, repo
}

func doGet(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealth(t *testing.T) {
	app, repo := newTestApp(t)

	resp, body := doGet(t, app, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"store":"connected"`)

	repo.SetPingError(errors.New("connection refused"))
	resp, body = doGet(t, app, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "connection refused")
}

func TestDashboardStats(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doGet(t, app, "/dashboard/stats?range=7d")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &payload))
	for _, key := range []string{"summary", "users", "resumes", "admins", "activity", "system", "charts", "derived", "lastUpdated", "state", "degraded"} {
		assert.Contains(t, payload, key)
	}
	assert.Equal(t, `"complete"`, string(payload["state"]))

	var users services.SectionResult
	require.NoError(t, json.Unmarshal(payload["users"], &users))
	assert.Len(t, users.DailySeries, 8)
}

func TestDashboardStats_InvalidRange(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doGet(t, app, "/dashboard/stats?startDate=2025-03-10&endDate=2025-03-01")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "error")

	resp, _ = doGet(t, app, "/dashboard/stats?startDate=2025-03-10")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDashboardWidgets(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doGet(t, app, "/dashboard/widgets?ids=stats_summary,bogus&range=30d")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Len(t, payload, 2)
	assert.Equal(t, "unknown widget: bogus", payload["bogus"]["error"])
	assert.Contains(t, payload["stats_summary"], "totalUsers")

	resp, _ = doGet(t, app, "/dashboard/widgets")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExport(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doGet(t, app, "/export?entity=users&format=csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, `attachment; filename="users_export_1742049000.csv"`, resp.Header.Get(fiber.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(string(body), "User ID,Name,Email"))

	resp, _ = doGet(t, app, "/export?entity=report&format=pdf&range=7d")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
}

func TestExport_Errors(t *testing.T) {
	app, _ := newTestApp(t)

	cases := []struct {
		target string
		status int
	}{
		{"/export?entity=users&format=docx", http.StatusBadRequest},
		{"/export?entity=payments", http.StatusBadRequest},
		{"/export?format=csv", http.StatusBadRequest},
		{"/export?entity=users&status=nobody", http.StatusNotFound},
		{"/export?entity=users&startDate=2025-03-10&endDate=2025-03-01", http.StatusBadRequest},
	}

	for _, tc := range cases {
		resp, body := doGet(t, app, tc.target)
		assert.Equal(t, tc.status, resp.StatusCode, tc.target)
		assert.Contains(t, string(body), `"error"`, tc.target)
	}
}

func TestExportBundle(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doGet(t, app, "/export/bundle?entities=users,resumes&format=json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get(fiber.HeaderContentType))

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	assert.Len(t, zr.File, 2)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	doGet(t, app, "/health")
	resp, body := doGet(t, app, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `resume_admin_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
