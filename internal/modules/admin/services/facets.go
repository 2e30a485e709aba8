package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/utils"
)

// Sample is one de-identified display row of a section
type Sample map[string]interface{}

// SectionResult is the merged output of one section aggregator. Breakdowns
// run over the same lifetime population as Total, so each dimension sums
// to Total unless the section is degraded.
type SectionResult struct {
	Section         string                            `json:"section"`
	Total           int64                             `json:"total"`
	RangeSummary    map[string]float64                `json:"rangeSummary"`
	DailySeries     []analytics.DailyPoint            `json:"dailySeries"`
	GroupBreakdown  map[string][]analytics.GroupCount `json:"groupBreakdown"`
	TopSamples      []Sample                          `json:"topSamples"`
	Completion      []analytics.CompletionPoint       `json:"completion,omitempty"`
	Runtime         *RuntimeStats                     `json:"runtime,omitempty"`
	Degraded        bool                              `json:"degraded"`
	DegradedMetrics []string                          `json:"degradedMetrics,omitempty"`
}

// Summary returns a range summary value, 0 when absent
func (r *SectionResult) Summary(key string) float64 {
	if r == nil {
		return 0
	}
	return r.RangeSummary[key]
}

// SectionOptions bounds breakdowns and sample lists
type SectionOptions struct {
	TopN       int
	SampleSize int
}

func (o SectionOptions) withDefaults() SectionOptions {
	if o.TopN <= 0 {
		o.TopN = 10
	}
	if o.SampleSize <= 0 {
		o.SampleSize = 5
	}
	return o
}

// SectionAggregator computes one section of the report
type SectionAggregator interface {
	Name() string
	Compute(ctx context.Context, repo analytics.QueryRepository, tr analytics.TimeRange) *SectionResult
}

// emptySection is the zero-valued, fully degraded result used when a
// section could not run at all
func emptySection(name, reason string) *SectionResult {
	return &SectionResult{
		Section:         name,
		RangeSummary:    map[string]float64{},
		DailySeries:     []analytics.DailyPoint{},
		GroupBreakdown:  map[string][]analytics.GroupCount{},
		TopSamples:      []Sample{},
		Degraded:        true,
		DegradedMetrics: []string{reason},
	}
}

// facetRunner runs the independent metric queries of one section
// concurrently and collects them into a SectionResult. A failed metric is
// zeroed and recorded instead of failing the section.
type facetRunner struct {
	ctx   context.Context
	repo  analytics.QueryRepository
	tr    analytics.TimeRange
	topN  int
	wg    sync.WaitGroup
	mu    sync.Mutex
	res   *SectionResult
	byDay map[string]map[string]float64
	names []string
}

func newFacetRunner(ctx context.Context, name string, repo analytics.QueryRepository, tr analytics.TimeRange, topN int) *facetRunner {
	return &facetRunner{
		ctx:  ctx,
		repo: repo,
		tr:   tr,
		topN: topN,
		res: &SectionResult{
			Section:        name,
			RangeSummary:   map[string]float64{},
			GroupBreakdown: map[string][]analytics.GroupCount{},
			TopSamples:     []Sample{},
		},
		byDay: map[string]map[string]float64{},
	}
}

// run executes fn in its own goroutine. A returned error or a panic marks
// metric as degraded.
func (f *facetRunner) run(metric string, fn func(ctx context.Context) error) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				f.degrade(metric, fmt.Errorf("panic: %v", r))
			}
		}()

		if err := fn(f.ctx); err != nil {
			f.degrade(metric, err)
		}
	}()
}

func (f *facetRunner) degrade(metric string, err error) {
	f.mu.Lock()
	f.res.Degraded = true
	f.res.DegradedMetrics = append(f.res.DegradedMetrics, metric)
	f.mu.Unlock()

	utils.LogWarn("section metric degraded", map[string]interface{}{
		"section": f.res.Section,
		"metric":  metric,
		"error":   err.Error(),
	})
}

func (f *facetRunner) set(fn func(r *SectionResult)) {
	f.mu.Lock()
	fn(f.res)
	f.mu.Unlock()
}

// total counts the lifetime population of table
func (f *facetRunner) total(table string, filter analytics.Filter) {
	f.run("total", func(ctx context.Context) error {
		n, err := f.repo.Count(ctx, table, filter)
		if err != nil {
			return &analytics.RepositoryError{Table: table, Metric: "total", Err: err}
		}
		f.set(func(r *SectionResult) { r.Total = n })
		return nil
	})
}

// count stores COUNT(filter) under key in the range summary
func (f *facetRunner) count(key, table string, filter analytics.Filter) {
	f.summaryKey(key)
	f.run(key, func(ctx context.Context) error {
		n, err := f.repo.Count(ctx, table, filter)
		if err != nil {
			return &analytics.RepositoryError{Table: table, Metric: key, Err: err}
		}
		f.set(func(r *SectionResult) { r.RangeSummary[key] = float64(n) })
		return nil
	})
}

// sum stores SUM(field) under key in the range summary
func (f *facetRunner) sum(key, table, field string, filter analytics.Filter) {
	f.aggregate(key, table, filter, analytics.Sum, field)
}

// avg stores AVG(field) under key in the range summary, rounded to 2 dp
func (f *facetRunner) avg(key, table, field string, filter analytics.Filter) {
	f.aggregate(key, table, filter, analytics.Average, field)
}

type scalarFunc func(ctx context.Context, repo analytics.QueryRepository, table, column string, filter analytics.Filter) (float64, error)

func (f *facetRunner) aggregate(key, table string, filter analytics.Filter, fn scalarFunc, field string) {
	f.summaryKey(key)
	f.run(key, func(ctx context.Context) error {
		v, err := fn(ctx, f.repo, table, field, filter)
		if err != nil {
			return &analytics.RepositoryError{Table: table, Metric: key, Err: err}
		}
		f.set(func(r *SectionResult) { r.RangeSummary[key] = analytics.Round2(v) })
		return nil
	})
}

// summaryKey makes sure key is present (as 0) even if its query fails
func (f *facetRunner) summaryKey(key string) {
	f.set(func(r *SectionResult) {
		if _, ok := r.RangeSummary[key]; !ok {
			r.RangeSummary[key] = 0
		}
	})
}

// daily runs one grouped-by-day query over the window and merges its
// metrics into the section's daily series
func (f *facetRunner) daily(metric, table, dateField string, filter analytics.Filter, aggs ...analytics.Aggregate) {
	f.mu.Lock()
	for _, agg := range aggs {
		f.names = append(f.names, agg.Alias)
	}
	f.mu.Unlock()

	f.run("daily_"+metric, func(ctx context.Context) error {
		points, err := analytics.DailyCounts(ctx, f.repo, table, dateField, f.tr, filter, aggs...)
		if err != nil {
			return &analytics.RepositoryError{Table: table, Metric: "daily_" + metric, Err: err}
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		for _, p := range points {
			day, ok := f.byDay[p.Date]
			if !ok {
				day = map[string]float64{}
				f.byDay[p.Date] = day
			}
			for name, v := range p.Metrics {
				day[name] = v
			}
		}
		return nil
	})
}

// breakdown groups the lifetime population by field and keeps the top N
func (f *facetRunner) breakdown(dimension, table, field string, filter analytics.Filter) {
	f.set(func(r *SectionResult) { r.GroupBreakdown[dimension] = []analytics.GroupCount{} })
	f.run("breakdown_"+dimension, func(ctx context.Context) error {
		groups, err := analytics.GroupCounts(ctx, f.repo, table, field, filter)
		if err != nil {
			return &analytics.RepositoryError{Table: table, Metric: "breakdown_" + dimension, Err: err}
		}
		f.set(func(r *SectionResult) { r.GroupBreakdown[dimension] = analytics.TopN(groups, f.topN) })
		return nil
	})
}

// samples fetches a bounded list of rows and projects each to display fields
func (f *facetRunner) samples(table string, filter analytics.Filter, limit int, sort analytics.Sort, project func(analytics.Row) Sample) {
	f.run("samples", func(ctx context.Context) error {
		rows, err := f.repo.FindRecent(ctx, table, filter, limit, sort)
		if err != nil {
			return &analytics.RepositoryError{Table: table, Metric: "samples", Err: err}
		}
		out := make([]Sample, 0, len(rows))
		for _, row := range rows {
			out = append(out, project(row))
		}
		f.set(func(r *SectionResult) { r.TopSamples = out })
		return nil
	})
}

// wait blocks until every metric finished and returns the merged result
// with a dense daily series
func (f *facetRunner) wait() *SectionResult {
	f.wg.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()

	sparse := make([]analytics.DailyPoint, 0, len(f.byDay))
	for date, metrics := range f.byDay {
		sparse = append(sparse, analytics.DailyPoint{Date: date, Metrics: metrics})
	}

	dense := analytics.FillDaily(f.tr.BucketDates, sparse)
	for _, p := range dense {
		for _, name := range f.names {
			if _, ok := p.Metrics[name]; !ok {
				p.Metrics[name] = 0
			}
		}
	}
	if len(f.names) == 0 {
		dense = []analytics.DailyPoint{}
	}
	f.res.DailySeries = dense

	sort.Strings(f.res.DegradedMetrics)
	return f.res
}

// pick copies the named fields of row into a Sample, renaming keys
func pick(row analytics.Row, fields map[string]string) Sample {
	s := make(Sample, len(fields))
	for from, to := range fields {
		s[to] = row[from]
	}
	return s
}
