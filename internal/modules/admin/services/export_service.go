package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/export"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/metrics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/utils"
)

// Exportable entities
const (
	EntityUsers    = "users"
	EntityResumes  = "resumes"
	EntityAdmins   = "admins"
	EntityActivity = "activity"
	EntityReport   = "report"
)

// DefaultExportMaxRows caps entity exports when no limit is configured
const DefaultExportMaxRows = 10000

// UnknownEntityError is returned for an entity that cannot be exported
type UnknownEntityError struct {
	Entity string
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown export entity: %s", e.Entity)
}

// ExportRequest selects what to export. A nil Range exports every row;
// the report entity falls back to the default period.
type ExportRequest struct {
	Entity   string
	Format   export.ExportFormat
	Range    *analytics.TimeRange
	Status   string
	Role     string
	Template string
	Action   string
}

// ExportResult is an encoded export plus its attachment name
type ExportResult struct {
	Document *export.Document
	Filename string
}

// ExportService turns entity listings and reports into downloadable files
type ExportService struct {
	repo     analytics.QueryRepository
	reports  *ReportService
	exporter *export.Service
	maxRows  int
	metrics  *metrics.Manager
	now      func() time.Time
}

func NewExportService(reports *ReportService, maxRows int, m *metrics.Manager) *ExportService {
	if maxRows <= 0 {
		maxRows = DefaultExportMaxRows
	}
	return &ExportService{
		repo:     reports.Repository(),
		reports:  reports,
		exporter: export.NewService(),
		maxRows:  maxRows,
		metrics:  m,
		now:      reports.now,
	}
}

// Entities lists every exportable entity
func Entities() []string {
	return []string{EntityUsers, EntityResumes, EntityAdmins, EntityActivity, EntityReport}
}

// Export builds and encodes one entity export
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	res, err := s.export(ctx, req)

	outcome := "ok"
	switch {
	case errors.Is(err, export.ErrEmptyExport):
		outcome = "empty"
	case err != nil:
		outcome = "error"
	}
	s.metrics.RecordExport(req.Entity, string(req.Format), outcome)

	return res, err
}

func (s *ExportService) export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	sheets, title, err := s.sheets(ctx, req)
	if err != nil {
		return nil, err
	}

	doc, err := s.exporter.Export(&export.Job{
		Title:     title,
		Format:    req.Format,
		Sheets:    sheets,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("export generated", map[string]interface{}{
		"entity": req.Entity,
		"format": req.Format,
		"bytes":  len(doc.Body),
	})

	return &ExportResult{
		Document: doc,
		Filename: export.Filename(req.Entity, doc.Extension, s.now()),
	}, nil
}

// Bundle exports several entities in the same format and zips them. Empty
// entities are left out; ErrEmptyExport is returned only when all are.
func (s *ExportService) Bundle(ctx context.Context, entities []string, req ExportRequest) (*ExportResult, error) {
	files := make([]export.BundleFile, 0, len(entities))

	for _, entity := range entities {
		r := req
		r.Entity = entity
		res, err := s.Export(ctx, r)
		if errors.Is(err, export.ErrEmptyExport) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", entity, err)
		}
		files = append(files, export.BundleFile{Name: res.Filename, Body: res.Document.Body})
	}

	doc, err := export.Bundle(files)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Document: doc,
		Filename: export.Filename("bundle", doc.Extension, s.now()),
	}, nil
}

func (s *ExportService) sheets(ctx context.Context, req ExportRequest) ([]export.Sheet, string, error) {
	switch req.Entity {
	case EntityUsers:
		records, err := s.userRecords(ctx, req)
		return []export.Sheet{{Name: "Users", Records: records}}, "Users Export", err
	case EntityResumes:
		records, err := s.resumeRecords(ctx, req)
		return []export.Sheet{{Name: "Resumes", Records: records}}, "Resumes Export", err
	case EntityAdmins:
		records, err := s.adminRecords(ctx, req)
		return []export.Sheet{{Name: "Admins", Records: records}}, "Admins Export", err
	case EntityActivity:
		records, err := s.activityRecords(ctx, req)
		return []export.Sheet{{Name: "Activity Logs", Records: records}}, "Activity Log Export", err
	case EntityReport:
		sheets, err := s.reportSheets(ctx, req)
		return sheets, "Statistics Report", err
	default:
		return nil, "", &UnknownEntityError{Entity: req.Entity}
	}
}

func (s *ExportService) filter(req ExportRequest, extra ...analytics.Condition) analytics.Filter {
	var f analytics.Filter
	if req.Range != nil {
		f = req.Range.Within("created_at")
	}
	return f.With(extra...)
}

func (s *ExportService) list(ctx context.Context, table string, filter analytics.Filter) ([]analytics.Row, error) {
	return s.repo.FindRecent(ctx, table, filter, s.maxRows, analytics.Sort{Field: "created_at", Desc: true})
}

func (s *ExportService) userRecords(ctx context.Context, req ExportRequest) ([]export.Record, error) {
	var conds []analytics.Condition
	if req.Status != "" {
		conds = append(conds, analytics.Eq("status", req.Status))
	}
	if req.Role != "" {
		conds = append(conds, analytics.Eq("role", req.Role))
	}

	users, err := s.list(ctx, analytics.TableUsers, s.filter(req, conds...))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	ids := idsOf(users, "id")
	groups, err := analytics.GroupCounts(ctx, s.repo, analytics.TableResumes, "user_id",
		analytics.Filter{{Field: "user_id", Op: analytics.OpIn, Value: ids}})
	if err != nil {
		return nil, err
	}
	resumeCount := make(map[string]int64, len(groups))
	for _, g := range groups {
		resumeCount[g.Key] = g.Count
	}

	records := make([]export.Record, 0, len(users))
	for _, u := range users {
		id := analytics.FormatLabel(u["id"])
		records = append(records, export.Record{
			export.F("User ID", id),
			export.F("Name", u["name"]),
			export.F("Email", u["email"]),
			export.F("Status", orDefault(u["status"], "active")),
			export.F("Role", orDefault(u["role"], "user")),
			export.F("Created At", u["created_at"]),
			export.F("Last Login", orDefault(u["last_login"], "Never")),
			export.F("Email Verified", u["is_verified"] == true),
			export.F("Resume Count", resumeCount[id]),
			export.F("Subscription", orDefault(u["subscription"], "free")),
		})
	}
	return records, nil
}

func (s *ExportService) resumeRecords(ctx context.Context, req ExportRequest) ([]export.Record, error) {
	var conds []analytics.Condition
	if req.Status != "" {
		conds = append(conds, analytics.Eq("status", req.Status))
	}
	if req.Template != "" {
		conds = append(conds, analytics.Eq("template", req.Template))
	}

	resumes, err := s.list(ctx, analytics.TableResumes, s.filter(req, conds...))
	if err != nil {
		return nil, err
	}
	if len(resumes) == 0 {
		return nil, nil
	}

	owners, err := s.lookup(ctx, analytics.TableUsers, idsOf(resumes, "user_id"))
	if err != nil {
		return nil, err
	}

	records := make([]export.Record, 0, len(resumes))
	for _, r := range resumes {
		owner := owners[analytics.FormatLabel(r["user_id"])]
		records = append(records, export.Record{
			export.F("Resume ID", analytics.FormatLabel(r["id"])),
			export.F("Title", r["title"]),
			export.F("User Name", owner["name"]),
			export.F("User Email", owner["email"]),
			export.F("Status", r["status"]),
			export.F("Template", r["template"]),
			export.F("Created At", r["created_at"]),
			export.F("Views", analytics.ToInt64(r["views"])),
			export.F("Downloads", analytics.ToInt64(r["downloads"])),
			export.F("Completion %", analytics.ToFloat64(r["completion_percentage"])),
			export.F("Is Public", r["is_public"] == true),
		})
	}
	return records, nil
}

func (s *ExportService) adminRecords(ctx context.Context, req ExportRequest) ([]export.Record, error) {
	var conds []analytics.Condition
	if req.Status != "" {
		conds = append(conds, analytics.Eq("status", req.Status))
	}
	if req.Role != "" {
		conds = append(conds, analytics.Eq("role", req.Role))
	}

	admins, err := s.list(ctx, analytics.TableAdmins, s.filter(req, conds...))
	if err != nil {
		return nil, err
	}

	records := make([]export.Record, 0, len(admins))
	for _, a := range admins {
		records = append(records, export.Record{
			export.F("Admin ID", analytics.FormatLabel(a["id"])),
			export.F("Name", a["name"]),
			export.F("Email", a["email"]),
			export.F("Role", a["role"]),
			export.F("Status", a["status"]),
			export.F("Last Login", orDefault(a["last_login"], "Never")),
			export.F("Created At", a["created_at"]),
		})
	}
	return records, nil
}

func (s *ExportService) activityRecords(ctx context.Context, req ExportRequest) ([]export.Record, error) {
	var conds []analytics.Condition
	if req.Status != "" {
		conds = append(conds, analytics.Eq("status", req.Status))
	}
	if req.Action != "" {
		conds = append(conds, analytics.Eq("action", req.Action))
	}

	logs, err := s.list(ctx, analytics.TableActivity, s.filter(req, conds...))
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}

	admins, err := s.lookup(ctx, analytics.TableAdmins, idsOf(logs, "admin_id"))
	if err != nil {
		return nil, err
	}

	records := make([]export.Record, 0, len(logs))
	for _, l := range logs {
		admin := admins[analytics.FormatLabel(l["admin_id"])]
		success := "No"
		if l["status"] == ActivitySuccess {
			success = "Yes"
		}
		records = append(records, export.Record{
			export.F("Log ID", analytics.FormatLabel(l["id"])),
			export.F("Timestamp", l["created_at"]),
			export.F("Action", l["action"]),
			export.F("Module", orDefault(l["resource"], "N/A")),
			export.F("Admin Name", orDefault(admin["name"], "System")),
			export.F("Admin Role", orDefault(admin["role"], "N/A")),
			export.F("IP Address", orDefault(l["ip_address"], "N/A")),
			export.F("Success", success),
			export.F("Response Time (ms)", analytics.ToFloat64(l["response_time_ms"])),
		})
	}
	return records, nil
}

// reportSheets renders a full report as the multi-sheet statistics export
func (s *ExportService) reportSheets(ctx context.Context, req ExportRequest) ([]export.Sheet, error) {
	tr := req.Range
	if tr == nil {
		resolved, err := s.reports.ResolveRange(analytics.DefaultPeriod, "", "")
		if err != nil {
			return nil, err
		}
		tr = &resolved
	}

	report := s.reports.Build(ctx, *tr)
	sum := report.Summary

	summary := []export.Record{
		{export.F("Metric", "Period"), export.F("Value", tr.Period)},
		{export.F("Metric", "Start"), export.F("Value", tr.Start)},
		{export.F("Metric", "End"), export.F("Value", tr.End)},
		{export.F("Metric", "Total Users"), export.F("Value", sum.TotalUsers)},
		{export.F("Metric", "New Users"), export.F("Value", sum.NewUsers)},
		{export.F("Metric", "Active Users"), export.F("Value", sum.ActiveUsers)},
		{export.F("Metric", "Total Resumes"), export.F("Value", sum.TotalResumes)},
		{export.F("Metric", "New Resumes"), export.F("Value", sum.NewResumes)},
		{export.F("Metric", "Avg Resumes per User"), export.F("Value", sum.AvgResumesPerUser)},
		{export.F("Metric", "Total Admins"), export.F("Value", sum.TotalAdmins)},
		{export.F("Metric", "Health Score"), export.F("Value", sum.HealthScore)},
		{export.F("Metric", "Health Status"), export.F("Value", sum.HealthStatus)},
		{export.F("Metric", "Report State"), export.F("Value", string(report.State))},
	}

	registrations := make([]export.Record, 0, tr.Days())
	for _, p := range report.Users.DailySeries {
		registrations = append(registrations, export.Record{
			export.F("Date", p.Date),
			export.F("New Users", p.Metrics["new"]),
		})
	}

	creations := make([]export.Record, 0, tr.Days())
	for _, p := range report.Resumes.DailySeries {
		creations = append(creations, export.Record{
			export.F("Date", p.Date),
			export.F("New Resumes", p.Metrics["new"]),
			export.F("Views", p.Metrics["views"]),
			export.F("Downloads", p.Metrics["downloads"]),
		})
	}

	return []export.Sheet{
		{Name: "Summary", Records: summary},
		{Name: "User Registrations", Records: registrations},
		{Name: "Resume Creations", Records: creations},
		{Name: "Template Usage", Records: breakdownRecords("Template", report.Resumes.GroupBreakdown["template"])},
		{Name: "Activity by Action", Records: breakdownRecords("Action", report.Activity.GroupBreakdown["action"])},
	}, nil
}

// lookup fetches rows by id in one query, keyed by formatted id
func (s *ExportService) lookup(ctx context.Context, table string, ids []string) (map[string]analytics.Row, error) {
	out := make(map[string]analytics.Row, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.repo.FindRecent(ctx, table,
		analytics.Filter{{Field: "id", Op: analytics.OpIn, Value: ids}}, len(ids), analytics.Sort{})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[analytics.FormatLabel(row["id"])] = row
	}
	return out, nil
}

func breakdownRecords(label string, groups []analytics.GroupCount) []export.Record {
	records := make([]export.Record, 0, len(groups))
	for _, g := range groups {
		records = append(records, export.Record{export.F(label, g.Key), export.F("Count", g.Count)})
	}
	return records
}

// idsOf collects the distinct non-empty values of field
func idsOf(rows []analytics.Row, field string) []string {
	seen := make(map[string]bool, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		id := analytics.FormatLabel(row[field])
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func orDefault(value interface{}, fallback string) interface{} {
	if value == nil {
		return fallback
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return fallback
	}
	return value
}
