package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/metrics"
)

// Widget ids
const (
	WidgetStatsSummary        = "stats_summary"
	WidgetUserGrowth          = "user_growth"
	WidgetResumeStats         = "resume_stats"
	WidgetCompletionHistogram = "completion_histogram"
	WidgetTemplateUsage       = "template_usage"
	WidgetActivityFeed        = "activity_feed"
	WidgetTopResumes          = "top_resumes"
	WidgetSystemHealth        = "system_health"
)

// WidgetFunc computes one widget payload
type WidgetFunc func(ctx context.Context, tr analytics.TimeRange) (interface{}, error)

// UnknownWidgetError is reported for a requested id with no registration
type UnknownWidgetError struct {
	ID string
}

func (e *UnknownWidgetError) Error() string {
	return fmt.Sprintf("unknown widget: %s", e.ID)
}

// WidgetError is the payload of a widget that could not be produced
type WidgetError struct {
	Err error
}

func (e WidgetError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"error": e.Err.Error()})
}

// Registry maps widget ids to their functions
type Registry struct {
	mu      sync.RWMutex
	widgets map[string]WidgetFunc
}

func NewRegistry() *Registry {
	return &Registry{widgets: make(map[string]WidgetFunc)}
}

// Register adds a widget. The id must be non-empty and unused and fn must
// not be nil.
func (r *Registry) Register(id string, fn WidgetFunc) error {
	if id == "" {
		return errors.New("widget id is required")
	}
	if fn == nil {
		return fmt.Errorf("widget %s has no function", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.widgets[id]; exists {
		return fmt.Errorf("widget %s already registered", id)
	}
	r.widgets[id] = fn
	return nil
}

// IDs returns every registered id, sorted
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.widgets))
	for id := range r.widgets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) lookup(id string) (WidgetFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.widgets[id]
	return fn, ok
}

// Compose evaluates only the requested widgets, concurrently. Each entry of
// the result is either the widget payload or a WidgetError; one failing
// widget never affects the others.
func (r *Registry) Compose(ctx context.Context, ids []string, tr analytics.TimeRange) map[string]interface{} {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	payloads := make([]interface{}, len(unique))

	var g errgroup.Group
	for i, id := range unique {
		i, id := i, id
		fn, ok := r.lookup(id)
		if !ok {
			payloads[i] = WidgetError{Err: &UnknownWidgetError{ID: id}}
			continue
		}
		g.Go(func() error {
			payloads[i] = evaluate(ctx, fn, tr)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]interface{}, len(unique))
	for i, id := range unique {
		out[id] = payloads[i]
	}
	return out
}

func evaluate(ctx context.Context, fn WidgetFunc, tr analytics.TimeRange) (payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			payload = WidgetError{Err: fmt.Errorf("widget panicked: %v", r)}
		}
	}()

	v, err := fn(ctx, tr)
	if err != nil {
		return WidgetError{Err: err}
	}
	return v
}

// WidgetService owns the dashboard widget registry
type WidgetService struct {
	registry *Registry
	reports  *ReportService
	repo     analytics.QueryRepository
	opts     SectionOptions
	metrics  *metrics.Manager
}

// NewWidgetService registers the built-in widgets on top of reports
func NewWidgetService(reports *ReportService, opts SectionOptions, m *metrics.Manager) (*WidgetService, error) {
	s := &WidgetService{
		registry: NewRegistry(),
		reports:  reports,
		repo:     reports.Repository(),
		opts:     opts.withDefaults(),
		metrics:  m,
	}

	builtins := []struct {
		id string
		fn WidgetFunc
	}{
		{WidgetStatsSummary, s.statsSummary},
		{WidgetUserGrowth, s.userGrowth},
		{WidgetResumeStats, s.resumeStats},
		{WidgetCompletionHistogram, s.completionHistogram},
		{WidgetTemplateUsage, s.templateUsage},
		{WidgetActivityFeed, s.activityFeed},
		{WidgetTopResumes, s.topResumes},
		{WidgetSystemHealth, s.systemHealth},
	}
	for _, w := range builtins {
		if err := s.registry.Register(w.id, w.fn); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Registry exposes the widget registry for additional registrations
func (s *WidgetService) Registry() *Registry {
	return s.registry
}

// Compose evaluates the requested widgets and records their outcomes
func (s *WidgetService) Compose(ctx context.Context, ids []string, tr analytics.TimeRange) map[string]interface{} {
	out := s.registry.Compose(ctx, ids, tr)
	for id, payload := range out {
		outcome := "ok"
		if we, ok := payload.(WidgetError); ok {
			var unknown *UnknownWidgetError
			if errors.As(we.Err, &unknown) {
				outcome = "unknown"
			} else {
				outcome = "error"
			}
		}
		s.metrics.RecordWidget(id, outcome)
	}
	return out
}

type statsSummary struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalResumes int64 `json:"totalResumes"`
	TotalAdmins  int64 `json:"totalAdmins"`
	NewUsers     int64 `json:"newUsers"`
	NewResumes   int64 `json:"newResumes"`
	ActiveUsers  int64 `json:"activeUsers"`
}

func (s *WidgetService) statsSummary(ctx context.Context, tr analytics.TimeRange) (interface{}, error) {
	var out statsSummary

	counts := []struct {
		dst    *int64
		table  string
		filter analytics.Filter
	}{
		{&out.TotalUsers, analytics.TableUsers, nil},
		{&out.TotalResumes, analytics.TableResumes, nil},
		{&out.TotalAdmins, analytics.TableAdmins, nil},
		{&out.NewUsers, analytics.TableUsers, tr.Within("created_at")},
		{&out.NewResumes, analytics.TableResumes, tr.Within("created_at")},
		{&out.ActiveUsers, analytics.TableUsers, tr.Within("last_login")},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		c := c
		g.Go(func() error {
			n, err := s.repo.Count(gctx, c.table, c.filter)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

type userGrowth struct {
	Chart      analytics.ChartSeries `json:"chart"`
	New        float64               `json:"new"`
	Total      int64                 `json:"total"`
	GrowthRate float64               `json:"growthRate"`
}

func (s *WidgetService) userGrowth(ctx context.Context, tr analytics.TimeRange) (interface{}, error) {
	points, err := analytics.DailyCounts(ctx, s.repo, analytics.TableUsers, "created_at", tr, nil,
		analytics.Aggregate{Alias: "new", Func: analytics.AggCount})
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, analytics.TableUsers, nil)
	if err != nil {
		return nil, err
	}

	var inRange float64
	for _, p := range points {
		inRange += p.Metrics["new"]
	}

	return userGrowth{
		Chart:      analytics.BuildSeries(tr.BucketDates, points, "new"),
		New:        inRange,
		Total:      total,
		GrowthRate: analytics.GrowthRate(int64(inRange), total),
	}, nil
}

func (s *WidgetService) resumeStats(ctx context.Context, tr analytics.TimeRange) (interface{}, error) {
	return s.section(ctx, SectionResumes, tr)
}

func (s *WidgetService) completionHistogram(ctx context.Context, tr analytics.TimeRange) (interface{}, error) {
	points, err := CompletionPoints(ctx, s.repo, nil)
	if err != nil {
		return nil, err
	}
	return analytics.CompletionHistogram(points), nil
}

func (s *WidgetService) templateUsage(ctx context.Context, tr analytics.TimeRange) (interface{}, error) {
	groups, err := analytics.GroupCounts(ctx, s.repo, analytics.TableResumes, "template", nil)
	if err != nil {
		return nil, err
	}
	return analytics.ToPieChartData(analytics.TopN(groups, s.opts.TopN)), nil
}

func (s *WidgetService) activityFeed(ctx context.Context, tr analytics.TimeRange) (interface{}, error) {
	rows, err := s.repo.FindRecent(ctx, analytics.TableActivity, tr.Within("created_at"),
		activityRecentLimit, analytics.Sort{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	feed := make([]Sample, 0, len(rows))
	for _, row := range rows {
		feed = append(feed, activitySample(row))
	}
	return feed, nil
}

func (s *WidgetService) topResumes(ctx context.Context, tr analytics.TimeRange) (interface{}, error) {
	rows, err := s.repo.FindRecent(ctx, analytics.TableResumes, nil,
		s.opts.SampleSize, analytics.Sort{Field: "views", Desc: true})
	if err != nil {
		return nil, err
	}

	out := make([]Sample, 0, len(rows))
	for _, row := range rows {
		out = append(out, pick(row, map[string]string{
			"id":        "id",
			"title":     "title",
			"template":  "template",
			"views":     "views",
			"downloads": "downloads",
		}))
	}
	return out, nil
}

type systemHealth struct {
	Health  analytics.HealthScore `json:"health"`
	Runtime *RuntimeStats         `json:"runtime"`
	Summary map[string]float64    `json:"summary"`
}

func (s *WidgetService) systemHealth(ctx context.Context, tr analytics.TimeRange) (interface{}, error) {
	res, err := s.section(ctx, SectionSystem, tr)
	if err != nil {
		return nil, err
	}
	return systemHealth{
		Health:  analytics.ComputeHealth(HealthInputs(res)),
		Runtime: res.Runtime,
		Summary: res.RangeSummary,
	}, nil
}

func (s *WidgetService) section(ctx context.Context, name string, tr analytics.TimeRange) (*SectionResult, error) {
	sec, ok := s.reports.Section(name)
	if !ok {
		return nil, fmt.Errorf("section %s not configured", name)
	}
	return sec.Compute(ctx, s.repo, tr), nil
}
