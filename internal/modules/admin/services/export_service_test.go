package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/export"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/metrics"
)

func newTestExportService(repo analytics.QueryRepository, maxRows int, m *metrics.Manager) *ExportService {
	return NewExportService(newTestReportService(repo, ReportOptions{}), maxRows, m)
}

func readCSV(t *testing.T, body []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportService_UsersCSV(t *testing.T) {
	svc := newTestExportService(fixtureRepo(), 0, nil)

	res, err := svc.Export(context.Background(), ExportRequest{Entity: EntityUsers, Format: export.FormatCSV})
	require.NoError(t, err)

	assert.Equal(t, "users_export_1742049000.csv", res.Filename)
	assert.Equal(t, "text/csv", res.Document.ContentType)

	rows := readCSV(t, res.Document.Body)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{
		"User ID", "Name", "Email", "Status", "Role", "Created At",
		"Last Login", "Email Verified", "Resume Count", "Subscription",
	}, rows[0])

	// newest first
	assert.Equal(t, "u1", rows[1][0])
	assert.Equal(t, "2", rows[1][8])
	assert.Equal(t, "Never", rows[4][6])
	assert.Equal(t, "0", rows[4][8])
}

func TestExportService_FiltersAndRange(t *testing.T) {
	svc := newTestExportService(fixtureRepo(), 0, nil)
	tr := sevenDays(t)

	res, err := svc.Export(context.Background(), ExportRequest{
		Entity: EntityResumes, Format: export.FormatCSV, Range: &tr, Template: "modern",
	})
	require.NoError(t, err)

	rows := readCSV(t, res.Document.Body)
	require.Len(t, rows, 2)
	assert.Equal(t, "r1", rows[1][0])
	assert.Equal(t, "Ada", rows[1][2])
	assert.Equal(t, "ada@example.com", rows[1][3])
}

func TestExportService_MaxRows(t *testing.T) {
	svc := newTestExportService(fixtureRepo(), 2, nil)

	res, err := svc.Export(context.Background(), ExportRequest{Entity: EntityActivity, Format: export.FormatCSV})
	require.NoError(t, err)

	rows := readCSV(t, res.Document.Body)
	require.Len(t, rows, 3)
	assert.Equal(t, "l4", rows[1][0])
	assert.Equal(t, "Root", rows[1][4])
	assert.Equal(t, "No", rows[1][7])
}

func TestExportService_EmptyResult(t *testing.T) {
	m := metrics.NewManager()
	svc := newTestExportService(fixtureRepo(), 0, m)

	_, err := svc.Export(context.Background(), ExportRequest{Entity: EntityUsers, Format: export.FormatPDF, Status: "deleted"})
	assert.ErrorIs(t, err, export.ErrEmptyExport)
	assert.Equal(t, 1.0, counterValue(t, m, "resume_admin_reports_exports_total", "outcome", "empty"))
}

func TestExportService_UnknownEntity(t *testing.T) {
	svc := newTestExportService(fixtureRepo(), 0, nil)

	_, err := svc.Export(context.Background(), ExportRequest{Entity: "payments", Format: export.FormatCSV})
	var unknown *UnknownEntityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "payments", unknown.Entity)
}

func TestExportService_AdminsJSON(t *testing.T) {
	svc := newTestExportService(fixtureRepo(), 0, nil)

	res, err := svc.Export(context.Background(), ExportRequest{Entity: EntityAdmins, Format: export.FormatJSON, Role: "moderator"})
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Document.Body, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "a2", decoded[0]["Admin ID"])
}

func TestExportService_ReportExcel(t *testing.T) {
	svc := newTestExportService(fixtureRepo(), 0, nil)
	tr := sevenDays(t)

	res, err := svc.Export(context.Background(), ExportRequest{Entity: EntityReport, Format: export.FormatExcel, Range: &tr})
	require.NoError(t, err)
	assert.Equal(t, "report_export_1742049000.xlsx", res.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(res.Document.Body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "User Registrations", "Resume Creations", "Template Usage", "Activity by Action"}, f.GetSheetList())

	rows, err := f.GetRows("User Registrations")
	require.NoError(t, err)
	assert.Len(t, rows, 1+len(tr.BucketDates))
	assert.Equal(t, []string{"Date", "New Users"}, rows[0])
}

func TestExportService_Bundle(t *testing.T) {
	svc := newTestExportService(fixtureRepo(), 0, nil)

	res, err := svc.Bundle(context.Background(), []string{EntityUsers, EntityResumes}, ExportRequest{Format: export.FormatCSV})
	require.NoError(t, err)
	assert.Equal(t, "bundle_export_1742049000.zip", res.Filename)

	zr, err := zip.NewReader(bytes.NewReader(res.Document.Body), int64(len(res.Document.Body)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"users_export_1742049000.csv", "resumes_export_1742049000.csv"}, names)
}

func TestExportService_BundleAllEmpty(t *testing.T) {
	svc := newTestExportService(analytics.NewMemoryRepository(), 0, nil)

	_, err := svc.Bundle(context.Background(), []string{EntityUsers, EntityAdmins}, ExportRequest{Format: export.FormatCSV})
	assert.ErrorIs(t, err, export.ErrEmptyExport)
}
