package analytics

import "sort"

// OtherGroup collects breakdown entries past the top-N cut
const OtherGroup = "other"

// FillDaily turns a sparse list of daily points into a dense one covering
// every bucket date in order. Missing days get zero for every metric seen.
func FillDaily(bucketDates []string, sparse []DailyPoint) []DailyPoint {
	byDate := make(map[string]map[string]float64, len(sparse))
	names := make(map[string]struct{})

	for _, p := range sparse {
		byDate[p.Date] = p.Metrics
		for name := range p.Metrics {
			names[name] = struct{}{}
		}
	}

	dense := make([]DailyPoint, len(bucketDates))
	for i, date := range bucketDates {
		metrics := make(map[string]float64, len(names))
		for name := range names {
			metrics[name] = byDate[date][name]
		}
		dense[i] = DailyPoint{Date: date, Metrics: metrics}
	}

	return dense
}

// BuildSeries converts daily points to a chart with one series per metric.
// Labels are exactly the bucket dates, so every series has the same length.
func BuildSeries(bucketDates []string, points []DailyPoint, metrics ...string) ChartSeries {
	byDate := make(map[string]map[string]float64, len(points))
	for _, p := range points {
		byDate[p.Date] = p.Metrics
	}

	labels := make([]string, len(bucketDates))
	copy(labels, bucketDates)

	series := make([]Series, 0, len(metrics))
	for _, name := range metrics {
		values := make([]float64, len(bucketDates))
		for i, date := range bucketDates {
			values[i] = byDate[date][name]
		}
		series = append(series, Series{Name: name, Values: values})
	}

	return ChartSeries{Labels: labels, Series: series}
}

// TopN orders groups by count desc (ties by key) and folds everything past
// the first n into a single "other" group, so the counts still add up
func TopN(groups []GroupCount, n int) []GroupCount {
	sorted := make([]GroupCount, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Key < sorted[j].Key
	})

	if n <= 0 || len(sorted) <= n {
		return sorted
	}

	var rest int64
	for _, g := range sorted[n:] {
		rest += g.Count
	}

	out := sorted[:n:n]
	for i := range out {
		if out[i].Key == OtherGroup {
			out[i].Count += rest
			return out
		}
	}
	return append(out, GroupCount{Key: OtherGroup, Count: rest})
}

// ToPieChartData converts a breakdown to pie chart format
func ToPieChartData(groups []GroupCount) PieChartData {
	labels := make([]string, len(groups))
	values := make([]float64, len(groups))

	for i, g := range groups {
		labels[i] = g.Key
		values[i] = float64(g.Count)
	}

	return PieChartData{
		Type:   "pie",
		Labels: labels,
		Values: values,
	}
}

// ToBarChartData converts a breakdown to a single-series bar chart
func ToBarChartData(name string, groups []GroupCount) ChartSeries {
	pie := ToPieChartData(groups)
	return ChartSeries{
		Labels: pie.Labels,
		Series: []Series{{Name: name, Values: pie.Values}},
	}
}
