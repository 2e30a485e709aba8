package analytics

import (
	"fmt"
	"math"
)

// Health statuses
const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
)

// CompletionOther holds completion values outside 0..100
const CompletionOther = "other"

var completionBounds = []struct {
	label    string
	min, max float64
}{
	{"0-25", 0, 25},
	{"25-50", 25, 50},
	{"50-75", 50, 75},
	{"75-100", 75, 100},
}

// ComputeHealth derives the 0-100 health score from store connectivity,
// memory pressure and the recent error count
func ComputeHealth(in HealthInputs) HealthScore {
	score := 100
	deductions := make([]Deduction, 0, 3)

	deduct := func(reason string, points int) {
		score -= points
		deductions = append(deductions, Deduction{Reason: reason, Points: points})
	}

	if !in.StoreConnected {
		deduct("store disconnected", 30)
	}

	switch {
	case in.MemoryPercent > 90:
		deduct(fmt.Sprintf("memory usage %.1f%% above 90%%", in.MemoryPercent), 30)
	case in.MemoryPercent > 80:
		deduct(fmt.Sprintf("memory usage %.1f%% above 80%%", in.MemoryPercent), 20)
	case in.MemoryPercent > 70:
		deduct(fmt.Sprintf("memory usage %.1f%% above 70%%", in.MemoryPercent), 10)
	}

	switch {
	case in.RecentErrors > 10:
		deduct(fmt.Sprintf("%d recent errors", in.RecentErrors), 20)
	case in.RecentErrors > 5:
		deduct(fmt.Sprintf("%d recent errors", in.RecentErrors), 10)
	case in.RecentErrors > 0:
		deduct(fmt.Sprintf("%d recent errors", in.RecentErrors), 5)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return HealthScore{Score: score, Status: ClassifyHealth(score), Deductions: deductions}
}

// ClassifyHealth maps a score to healthy (>=80), warning (>=60) or critical
func ClassifyHealth(score int) string {
	switch {
	case score >= 80:
		return HealthHealthy
	case score >= 60:
		return HealthWarning
	default:
		return HealthCritical
	}
}

// GrowthRate is rangeCount as a percentage of total, 0 when total is 0
func GrowthRate(rangeCount, total int64) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(rangeCount) / float64(total) * 100)
}

// DailyChangePercent compares today's value against the window's daily
// average. It is 0 when the average is 0.
func DailyChangePercent(today, total float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	avg := total / float64(days)
	if avg == 0 {
		return 0
	}
	return Round2((today - avg) / avg * 100)
}

// Ratio returns a/b rounded to 2 dp, 0 when b is 0
func Ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return Round2(a / b)
}

// Percent is a as a percentage of b, rounded once to 2 dp, 0 when b is 0
func Percent(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return Round2(a / b * 100)
}

// CompletionHistogram buckets completion percentages into quarters plus an
// "other" bucket for values outside 0..100. Every bucket is always present.
func CompletionHistogram(points []CompletionPoint) []CompletionBucket {
	counts := make([]int64, len(completionBounds)+1)
	views := make([]float64, len(completionBounds)+1)

	for _, p := range points {
		idx := completionIndex(p.Percent)
		counts[idx] += p.Count
		views[idx] += p.Views
	}

	buckets := make([]CompletionBucket, 0, len(counts))
	for i, c := range counts {
		label := CompletionOther
		if i < len(completionBounds) {
			label = completionBounds[i].label
		}
		var avg float64
		if c > 0 {
			avg = Round2(views[i] / float64(c))
		}
		buckets = append(buckets, CompletionBucket{Label: label, Count: c, AvgViews: avg})
	}

	return buckets
}

func completionIndex(percent float64) int {
	if math.IsNaN(percent) {
		return len(completionBounds)
	}
	for i, b := range completionBounds {
		if percent >= b.min && percent < b.max {
			return i
		}
	}
	// 100 belongs to the last bucket
	if percent == 100 {
		return len(completionBounds) - 1
	}
	return len(completionBounds)
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
