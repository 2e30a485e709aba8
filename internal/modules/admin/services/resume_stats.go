package services

import (
	"context"
	"sort"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
)

// ResumeStats aggregates resume documents, including the raw completion
// distribution the histogram is built from
type ResumeStats struct {
	opts SectionOptions
}

func NewResumeStats(opts SectionOptions) *ResumeStats {
	return &ResumeStats{opts: opts.withDefaults()}
}

func (s *ResumeStats) Name() string { return SectionResumes }

func (s *ResumeStats) Compute(ctx context.Context, repo analytics.QueryRepository, tr analytics.TimeRange) *SectionResult {
	f := newFacetRunner(ctx, SectionResumes, repo, tr, s.opts.TopN)
	created := tr.Within("created_at")

	f.total(analytics.TableResumes, nil)
	f.count("new", analytics.TableResumes, created)
	f.sum("views", analytics.TableResumes, "views", created)
	f.sum("downloads", analytics.TableResumes, "downloads", created)
	f.count("published", analytics.TableResumes, created.With(analytics.Eq("status", "published")))
	f.avg("avgCompletion", analytics.TableResumes, "completion_percentage", created)

	f.daily("resumes", analytics.TableResumes, "created_at", nil,
		analytics.Aggregate{Alias: "new", Func: analytics.AggCount},
		analytics.Aggregate{Alias: "views", Func: analytics.AggSum, Field: "views"},
		analytics.Aggregate{Alias: "downloads", Func: analytics.AggSum, Field: "downloads"},
	)

	f.breakdown("status", analytics.TableResumes, "status", nil)
	f.breakdown("template", analytics.TableResumes, "template", nil)

	f.samples(analytics.TableResumes, nil, s.opts.SampleSize,
		analytics.Sort{Field: "views", Desc: true},
		func(row analytics.Row) Sample {
			return pick(row, map[string]string{"id": "id", "title": "title", "template": "template", "views": "views"})
		})

	f.run("completion", func(ctx context.Context) error {
		points, err := CompletionPoints(ctx, repo, nil)
		if err != nil {
			return &analytics.RepositoryError{Table: analytics.TableResumes, Metric: "completion", Err: err}
		}
		f.set(func(r *SectionResult) { r.Completion = points })
		return nil
	})

	res := f.wait()
	if res.Completion == nil {
		res.Completion = []analytics.CompletionPoint{}
	}
	return res
}

// CompletionPoints groups resumes by completion percentage with their
// count and total views
func CompletionPoints(ctx context.Context, repo analytics.QueryRepository, filter analytics.Filter) ([]analytics.CompletionPoint, error) {
	rows, err := repo.Aggregate(ctx, analytics.AggregateQuery{
		Table:   analytics.TableResumes,
		GroupBy: []analytics.GroupKey{{Field: "completion_percentage", Alias: "percent"}},
		Aggregates: []analytics.Aggregate{
			{Alias: "count", Func: analytics.AggCount},
			{Alias: "views", Func: analytics.AggSum, Field: "views"},
		},
		Filter: filter,
	})
	if err != nil {
		return nil, err
	}

	points := make([]analytics.CompletionPoint, 0, len(rows))
	for _, row := range rows {
		count := analytics.ToInt64(row["count"])
		if count == 0 {
			continue
		}
		points = append(points, analytics.CompletionPoint{
			Percent: analytics.ToFloat64(row["percent"]),
			Count:   count,
			Views:   analytics.ToFloat64(row["views"]),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Percent < points[j].Percent })

	return points, nil
}
