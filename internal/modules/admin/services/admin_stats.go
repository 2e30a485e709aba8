package services

import (
	"context"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
)

// AdminStats aggregates back-office operators
type AdminStats struct {
	opts SectionOptions
}

func NewAdminStats(opts SectionOptions) *AdminStats {
	return &AdminStats{opts: opts.withDefaults()}
}

func (s *AdminStats) Name() string { return SectionAdmins }

func (s *AdminStats) Compute(ctx context.Context, repo analytics.QueryRepository, tr analytics.TimeRange) *SectionResult {
	f := newFacetRunner(ctx, SectionAdmins, repo, tr, s.opts.TopN)

	f.total(analytics.TableAdmins, nil)
	f.count("new", analytics.TableAdmins, tr.Within("created_at"))
	f.count("active", analytics.TableAdmins, tr.Within("last_login"))

	f.daily("new", analytics.TableAdmins, "created_at", nil,
		analytics.Aggregate{Alias: "new", Func: analytics.AggCount})

	f.breakdown("role", analytics.TableAdmins, "role", nil)
	f.breakdown("status", analytics.TableAdmins, "status", nil)

	// email and login timestamps stay out of the sample
	f.samples(analytics.TableAdmins, nil, s.opts.SampleSize,
		analytics.Sort{Field: "last_login", Desc: true},
		func(row analytics.Row) Sample {
			return pick(row, map[string]string{"id": "id", "name": "name", "role": "role"})
		})

	return f.wait()
}
