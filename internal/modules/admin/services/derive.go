package services

import (
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
)

// Summary holds the headline card values of the dashboard
type Summary struct {
	TotalUsers        int64   `json:"totalUsers"`
	TotalResumes      int64   `json:"totalResumes"`
	TotalAdmins       int64   `json:"totalAdmins"`
	TotalActivity     int64   `json:"totalActivity"`
	NewUsers          int64   `json:"newUsers"`
	NewResumes        int64   `json:"newResumes"`
	ActiveUsers       int64   `json:"activeUsers"`
	AvgResumesPerUser float64 `json:"avgResumesPerUser"`
	HealthScore       int     `json:"healthScore"`
	HealthStatus      string  `json:"healthStatus"`
}

// Derived holds metrics computed from the merged sections
type Derived struct {
	Health              analytics.HealthScore        `json:"health"`
	GrowthRates         map[string]float64           `json:"growthRates"`
	DailyChange         map[string]float64           `json:"dailyChange"`
	CompletionHistogram []analytics.CompletionBucket `json:"completionHistogram"`
	FailureRate         float64                      `json:"failureRate"`
}

// sectionSet is the merged output of one fan-out. Any member may be nil.
type sectionSet struct {
	users, resumes, admins, activity, system *SectionResult
}

// primary names the range-summary key and daily metric each section's
// growth and daily change are measured on
var primary = []struct {
	section string
	metric  string
	pick    func(s sectionSet) *SectionResult
}{
	{SectionUsers, "new", func(s sectionSet) *SectionResult { return s.users }},
	{SectionResumes, "new", func(s sectionSet) *SectionResult { return s.resumes }},
	{SectionAdmins, "new", func(s sectionSet) *SectionResult { return s.admins }},
	{SectionActivity, "events", func(s sectionSet) *SectionResult { return s.activity }},
}

// derive computes the summary cards and derived metrics. Degraded or
// missing sections contribute zero values.
func derive(s sectionSet, tr analytics.TimeRange) (Summary, Derived) {
	health := analytics.ComputeHealth(HealthInputs(s.system))

	summary := Summary{
		TotalUsers:    totalOf(s.users),
		TotalResumes:  totalOf(s.resumes),
		TotalAdmins:   totalOf(s.admins),
		TotalActivity: totalOf(s.activity),
		NewUsers:      int64(s.users.Summary("new")),
		NewResumes:    int64(s.resumes.Summary("new")),
		ActiveUsers:   int64(s.users.Summary("active")),
		HealthScore:   health.Score,
		HealthStatus:  health.Status,
	}
	summary.AvgResumesPerUser = analytics.Ratio(float64(summary.TotalResumes), float64(summary.TotalUsers))

	derived := Derived{
		Health:      health,
		GrowthRates: make(map[string]float64, len(primary)),
		DailyChange: make(map[string]float64, len(primary)),
		FailureRate: analytics.Percent(s.activity.Summary("failed"), s.activity.Summary("events")),
	}

	for _, p := range primary {
		sec := p.pick(s)
		inRange := sec.Summary(p.metric)
		derived.GrowthRates[p.section] = analytics.GrowthRate(int64(inRange), totalOf(sec))
		derived.DailyChange[p.section] = analytics.DailyChangePercent(lastDay(sec, p.metric), inRange, tr.Days())
	}

	var completion []analytics.CompletionPoint
	if s.resumes != nil {
		completion = s.resumes.Completion
	}
	derived.CompletionHistogram = analytics.CompletionHistogram(completion)

	return summary, derived
}

func totalOf(r *SectionResult) int64 {
	if r == nil {
		return 0
	}
	return r.Total
}

// lastDay returns the metric's value on the final bucket of the series
func lastDay(r *SectionResult, metric string) float64 {
	if r == nil || len(r.DailySeries) == 0 {
		return 0
	}
	return r.DailySeries[len(r.DailySeries)-1].Metrics[metric]
}
