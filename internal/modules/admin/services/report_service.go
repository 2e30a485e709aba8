package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/metrics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/utils"
)

// ReportState is a step of the report build lifecycle
type ReportState string

const (
	StatePending           ReportState = "pending"
	StateRunning           ReportState = "running"
	StateComplete          ReportState = "complete"
	StatePartiallyComplete ReportState = "partially_complete"
	StateMerged            ReportState = "merged"
)

// DefaultReportTimeout bounds one report build when no timeout is configured
const DefaultReportTimeout = 10 * time.Second

// Chart names
const (
	ChartUserGrowth     = "userGrowth"
	ChartResumeActivity = "resumeActivity"
	ChartAdminGrowth    = "adminGrowth"
	ChartActivity       = "activity"
	ChartTemplateUsage  = "templateUsage"
	ChartCompletion     = "completion"
)

// Report is the merged dashboard payload
type Report struct {
	Range       analytics.TimeRange              `json:"range"`
	Summary     Summary                          `json:"summary"`
	Users       *SectionResult                   `json:"users"`
	Resumes     *SectionResult                   `json:"resumes"`
	Admins      *SectionResult                   `json:"admins"`
	Activity    *SectionResult                   `json:"activity"`
	System      *SectionResult                   `json:"system"`
	Derived     Derived                          `json:"derived"`
	Charts      map[string]analytics.ChartSeries `json:"charts"`
	State       ReportState                      `json:"state"`
	Degraded    bool                             `json:"degraded"`
	GeneratedAt time.Time                        `json:"lastUpdated"`
}

// ReportOptions configures a ReportService
type ReportOptions struct {
	Timeout time.Duration
	Section SectionOptions
	Probe   RuntimeProbe
	Pinger  analytics.Pinger
	Metrics *metrics.Manager
	Now     func() time.Time
}

// ReportService fans the section aggregators out over one time range and
// merges their results into a Report
type ReportService struct {
	repo     analytics.QueryRepository
	sections []SectionAggregator
	timeout  time.Duration
	metrics  *metrics.Manager
	now      func() time.Time
}

func NewReportService(repo analytics.QueryRepository, opts ReportOptions) *ReportService {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultReportTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pinger == nil {
		if p, ok := repo.(analytics.Pinger); ok {
			opts.Pinger = p
		}
	}

	return &ReportService{
		repo: repo,
		sections: []SectionAggregator{
			NewUserStats(opts.Section),
			NewResumeStats(opts.Section),
			NewAdminStats(opts.Section),
			NewActivityStats(opts.Section),
			NewSystemStats(opts.Section, opts.Probe, opts.Pinger, opts.Now),
		},
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
}

// ResolveRange resolves request parameters against the service clock
func (s *ReportService) ResolveRange(period, startDate, endDate string) (analytics.TimeRange, error) {
	return analytics.ResolveRange(period, startDate, endDate, s.now().UTC())
}

// Section returns the aggregator registered under name
func (s *ReportService) Section(name string) (SectionAggregator, bool) {
	for _, sec := range s.sections {
		if sec.Name() == name {
			return sec, true
		}
	}
	return nil, false
}

// Repository exposes the query repository the service runs against
func (s *ReportService) Repository() analytics.QueryRepository {
	return s.repo
}

// Build runs every section concurrently and merges the results. It always
// returns a report: sections that fail, panic or run past the deadline are
// merged as degraded.
func (s *ReportService) Build(ctx context.Context, tr analytics.TimeRange) *Report {
	b := &reportBuild{state: StatePending}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	slots := &sectionSlots{results: make([]*SectionResult, len(s.sections))}

	b.transition(StateRunning)
	g, gctx := errgroup.WithContext(ctx)
	for i, sec := range s.sections {
		i, sec := i, sec
		g.Go(func() error {
			slots.set(i, s.runSection(gctx, sec, tr))
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// sections still blocked in a store call are abandoned; their late
		// results are discarded
	}
	results := slots.close(s.sections, ctx.Err())

	degraded := false
	for _, r := range results {
		if r.Degraded {
			degraded = true
		}
	}
	if degraded {
		b.transition(StatePartiallyComplete)
	} else {
		b.transition(StateComplete)
	}
	final := b.state

	report := s.merge(results, tr)
	report.State = final
	report.Degraded = degraded
	b.transition(StateMerged)

	s.metrics.RecordReport(string(final))
	utils.LogInfo("report built", map[string]interface{}{
		"period":   tr.Period,
		"state":    final,
		"degraded": degraded,
	})

	return report
}

// RefreshHealth recomputes the system section over the last day and
// publishes the health score and store state as gauges
func (s *ReportService) RefreshHealth(ctx context.Context) (analytics.HealthScore, error) {
	sec, ok := s.Section(SectionSystem)
	if !ok {
		return analytics.HealthScore{}, fmt.Errorf("section %s not configured", SectionSystem)
	}

	tr, err := s.ResolveRange("24h", "", "")
	if err != nil {
		return analytics.HealthScore{}, err
	}

	res := sec.Compute(ctx, s.repo, tr)
	health := analytics.ComputeHealth(HealthInputs(res))
	s.metrics.SetHealth(health.Score, res.Summary("storeConnected") == 1)

	if res.Degraded {
		utils.LogWarn("health refresh degraded", map[string]interface{}{
			"score":   health.Score,
			"metrics": res.DegradedMetrics,
		})
	}

	return health, nil
}

// runSection computes one section, turning a panic into an empty degraded
// result
func (s *ReportService) runSection(ctx context.Context, sec SectionAggregator, tr analytics.TimeRange) (res *SectionResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			utils.LogError("section panicked", fmt.Errorf("%v", r), map[string]interface{}{"section": sec.Name()})
			res = emptySection(sec.Name(), "panic")
		}
		s.metrics.ObserveSection(sec.Name(), time.Since(start), res.Degraded)
	}()

	res = sec.Compute(ctx, s.repo, tr)
	if res == nil {
		res = emptySection(sec.Name(), "no result")
	}
	return res
}

func (s *ReportService) merge(results []*SectionResult, tr analytics.TimeRange) *Report {
	report := &Report{
		Range:       tr,
		GeneratedAt: s.now().UTC(),
	}

	for _, r := range results {
		switch r.Section {
		case SectionUsers:
			report.Users = r
		case SectionResumes:
			report.Resumes = r
		case SectionAdmins:
			report.Admins = r
		case SectionActivity:
			report.Activity = r
		case SectionSystem:
			report.System = r
		}
	}

	set := sectionSet{
		users:    report.Users,
		resumes:  report.Resumes,
		admins:   report.Admins,
		activity: report.Activity,
		system:   report.System,
	}
	report.Summary, report.Derived = derive(set, tr)
	report.Charts = buildCharts(set, report.Derived, tr)

	return report
}

func buildCharts(s sectionSet, d Derived, tr analytics.TimeRange) map[string]analytics.ChartSeries {
	series := func(r *SectionResult, metrics ...string) analytics.ChartSeries {
		var points []analytics.DailyPoint
		if r != nil {
			points = r.DailySeries
		}
		return analytics.BuildSeries(tr.BucketDates, points, metrics...)
	}

	var templates []analytics.GroupCount
	if s.resumes != nil {
		templates = s.resumes.GroupBreakdown["template"]
	}

	completion := make([]analytics.GroupCount, len(d.CompletionHistogram))
	for i, b := range d.CompletionHistogram {
		completion[i] = analytics.GroupCount{Key: b.Label, Count: b.Count}
	}

	return map[string]analytics.ChartSeries{
		ChartUserGrowth:     series(s.users, "new"),
		ChartResumeActivity: series(s.resumes, "new", "views", "downloads"),
		ChartAdminGrowth:    series(s.admins, "new"),
		ChartActivity:       series(s.activity, "events", "failed"),
		ChartTemplateUsage:  analytics.ToBarChartData("resumes", templates),
		ChartCompletion:     analytics.ToBarChartData("resumes", completion),
	}
}

// sectionSlots collects section results from the fan-out. Once closed,
// late writes are dropped.
type sectionSlots struct {
	mu      sync.Mutex
	closed  bool
	results []*SectionResult
}

func (s *sectionSlots) set(i int, res *SectionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.results[i] = res
	}
}

// close snapshots the results, filling sections that never reported with
// an empty degraded result
func (s *sectionSlots) close(sections []SectionAggregator, cause error) []*SectionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	reason := "timeout"
	if errors.Is(cause, context.Canceled) {
		reason = "cancelled"
	}

	out := make([]*SectionResult, len(s.results))
	for i, r := range s.results {
		if r == nil {
			utils.LogWarn("section abandoned", map[string]interface{}{
				"section": sections[i].Name(),
				"reason":  reason,
			})
			r = emptySection(sections[i].Name(), reason)
		}
		out[i] = r
	}
	return out
}

// reportBuild tracks the lifecycle of one Build call
type reportBuild struct {
	mu    sync.Mutex
	state ReportState
}

var reportTransitions = map[ReportState][]ReportState{
	StatePending:           {StateRunning},
	StateRunning:           {StateComplete, StatePartiallyComplete},
	StateComplete:          {StateMerged},
	StatePartiallyComplete: {StateMerged},
}

func (b *reportBuild) transition(to ReportState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, next := range reportTransitions[b.state] {
		if next == to {
			b.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid report transition %s -> %s", b.state, to)
}
