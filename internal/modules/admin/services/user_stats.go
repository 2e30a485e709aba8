package services

import (
	"context"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
)

// Section names
const (
	SectionUsers    = "users"
	SectionResumes  = "resumes"
	SectionAdmins   = "admins"
	SectionActivity = "activity"
	SectionSystem   = "system"
)

// UserStats aggregates platform accounts
type UserStats struct {
	opts SectionOptions
}

func NewUserStats(opts SectionOptions) *UserStats {
	return &UserStats{opts: opts.withDefaults()}
}

func (s *UserStats) Name() string { return SectionUsers }

func (s *UserStats) Compute(ctx context.Context, repo analytics.QueryRepository, tr analytics.TimeRange) *SectionResult {
	f := newFacetRunner(ctx, SectionUsers, repo, tr, s.opts.TopN)
	created := tr.Within("created_at")

	f.total(analytics.TableUsers, nil)
	f.count("new", analytics.TableUsers, created)
	f.count("verified", analytics.TableUsers, created.With(analytics.Eq("is_verified", true)))
	f.count("active", analytics.TableUsers, tr.Within("last_login"))
	f.count("premium", analytics.TableUsers, created.With(analytics.Condition{
		Field: "subscription", Op: analytics.OpIn, Value: []string{"premium", "enterprise"},
	}))

	f.daily("new", analytics.TableUsers, "created_at", nil,
		analytics.Aggregate{Alias: "new", Func: analytics.AggCount})

	f.breakdown("status", analytics.TableUsers, "status", nil)
	f.breakdown("role", analytics.TableUsers, "role", nil)
	f.breakdown("subscription", analytics.TableUsers, "subscription", nil)

	f.samples(analytics.TableUsers, nil, s.opts.SampleSize,
		analytics.Sort{Field: "created_at", Desc: true},
		func(row analytics.Row) Sample {
			return pick(row, map[string]string{"id": "id", "name": "name", "role": "role", "created_at": "created"})
		})

	return f.wait()
}
