package services

import (
	"context"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
)

// Activity statuses and the failed-login action
const (
	ActivitySuccess     = "success"
	ActivityFailed      = "failed"
	ActionLoginFailed   = "login_failed"
	activityRecentLimit = 10
)

// ActivityStats aggregates the admin activity log
type ActivityStats struct {
	opts SectionOptions
}

func NewActivityStats(opts SectionOptions) *ActivityStats {
	return &ActivityStats{opts: opts.withDefaults()}
}

func (s *ActivityStats) Name() string { return SectionActivity }

func (s *ActivityStats) Compute(ctx context.Context, repo analytics.QueryRepository, tr analytics.TimeRange) *SectionResult {
	f := newFacetRunner(ctx, SectionActivity, repo, tr, s.opts.TopN)
	created := tr.Within("created_at")
	failed := analytics.Filter{analytics.Eq("status", ActivityFailed)}

	f.total(analytics.TableActivity, nil)
	f.count("events", analytics.TableActivity, created)
	f.count("failed", analytics.TableActivity, created.With(failed...))
	f.count("succeeded", analytics.TableActivity, created.With(analytics.Eq("status", ActivitySuccess)))
	f.count("loginFailed", analytics.TableActivity, created.With(analytics.Eq("action", ActionLoginFailed)))
	f.avg("avgResponseMs", analytics.TableActivity, "response_time_ms", created)

	f.daily("events", analytics.TableActivity, "created_at", nil,
		analytics.Aggregate{Alias: "events", Func: analytics.AggCount})
	f.daily("failed", analytics.TableActivity, "created_at", failed,
		analytics.Aggregate{Alias: "failed", Func: analytics.AggCount})

	f.breakdown("action", analytics.TableActivity, "action", nil)
	f.breakdown("status", analytics.TableActivity, "status", nil)
	f.breakdown("resource", analytics.TableActivity, "resource", nil)

	f.samples(analytics.TableActivity, nil, s.opts.SampleSize,
		analytics.Sort{Field: "created_at", Desc: true},
		activitySample)

	return f.wait()
}

func activitySample(row analytics.Row) Sample {
	return pick(row, map[string]string{
		"id":         "id",
		"action":     "action",
		"resource":   "resource",
		"status":     "status",
		"created_at": "created",
	})
}
