package analytics

import (
	"context"
	"fmt"
	"time"
)

// Tables known to the reporting engine
const (
	TableUsers    = "users"
	TableResumes  = "resumes"
	TableAdmins   = "admins"
	TableActivity = "activity_logs"
)

// AllTables lists every collection in a stable order
var AllTables = []string{TableUsers, TableResumes, TableAdmins, TableActivity}

// QueryRepository is the read-only query surface the sections run against.
// Implementations must be safe for concurrent use.
type QueryRepository interface {
	Aggregate(ctx context.Context, query AggregateQuery) ([]Row, error)
	Count(ctx context.Context, table string, filter Filter) (int64, error)
	FindRecent(ctx context.Context, table string, filter Filter, limit int, sort Sort) ([]Row, error)
}

// Pinger reports store connectivity
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Between is shorthand for start <= field <= end
func Between(field string, start, end time.Time) Filter {
	return Filter{
		{Field: field, Op: OpGte, Value: start},
		{Field: field, Op: OpLte, Value: end},
	}
}

// Within returns the window as a filter on the given timestamp field
func (tr TimeRange) Within(field string) Filter {
	return Between(field, tr.Start, tr.End)
}

// Sum performs a simple SUM query
func Sum(ctx context.Context, repo QueryRepository, table, column string, filter Filter) (float64, error) {
	return single(ctx, repo, table, Aggregate{Alias: "total", Func: AggSum, Field: column}, filter)
}

// Average performs a simple AVG query
func Average(ctx context.Context, repo QueryRepository, table, column string, filter Filter) (float64, error) {
	return single(ctx, repo, table, Aggregate{Alias: "avg", Func: AggAvg, Field: column}, filter)
}

func single(ctx context.Context, repo QueryRepository, table string, agg Aggregate, filter Filter) (float64, error) {
	rows, err := repo.Aggregate(ctx, AggregateQuery{
		Table:      table,
		Aggregates: []Aggregate{agg},
		Filter:     filter,
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	return ToFloat64(rows[0][agg.Alias]), nil
}

// GroupCounts runs COUNT(*) grouped by one field and returns the raw groups
// in store order. Null and empty keys are merged into one "unknown" group.
func GroupCounts(ctx context.Context, repo QueryRepository, table, field string, filter Filter) ([]GroupCount, error) {
	rows, err := repo.Aggregate(ctx, AggregateQuery{
		Table:      table,
		GroupBy:    []GroupKey{{Field: field, Alias: "key"}},
		Aggregates: []Aggregate{{Alias: "count", Func: AggCount}},
		Filter:     filter,
	})
	if err != nil {
		return nil, err
	}

	groups := make([]GroupCount, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		key := FormatLabel(row["key"])
		if key == "" {
			key = "unknown"
		}
		if i, ok := index[key]; ok {
			groups[i].Count += ToInt64(row["count"])
			continue
		}
		index[key] = len(groups)
		groups = append(groups, GroupCount{Key: key, Count: ToInt64(row["count"])})
	}

	return groups, nil
}

// DailyCounts runs the given aggregates grouped by the calendar day of
// dateField and returns one sparse point per day that has data
func DailyCounts(ctx context.Context, repo QueryRepository, table, dateField string, tr TimeRange, filter Filter, aggs ...Aggregate) ([]DailyPoint, error) {
	if len(aggs) == 0 {
		aggs = []Aggregate{{Alias: "count", Func: AggCount}}
	}

	rows, err := repo.Aggregate(ctx, AggregateQuery{
		Table:      table,
		GroupBy:    []GroupKey{{Field: dateField, Alias: "date", Day: true}},
		Aggregates: aggs,
		Filter:     filter,
		DateRange:  tr.On(dateField),
	})
	if err != nil {
		return nil, err
	}

	points := make([]DailyPoint, 0, len(rows))
	for _, row := range rows {
		point := DailyPoint{Date: FormatLabel(row["date"]), Metrics: make(map[string]float64, len(aggs))}
		for _, agg := range aggs {
			point.Metrics[agg.Alias] = ToFloat64(row[agg.Alias])
		}
		points = append(points, point)
	}

	return points, nil
}

// ToFloat64 converts numeric driver values to float64, anything else to 0
func ToFloat64(value interface{}) float64 {
	if value == nil {
		return 0
	}

	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case []byte:
		// numeric columns come back as text from some drivers
		var f float64
		if _, err := fmt.Sscanf(string(v), "%g", &f); err == nil {
			return f
		}
		return 0
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}

// ToInt64 converts numeric driver values to int64
func ToInt64(value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	default:
		return int64(ToFloat64(value))
	}
}

// FormatLabel renders a group key or date value as a chart label
func FormatLabel(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(DateLayout)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
