package analytics

import "time"

// Row is a single result row returned by a QueryRepository
type Row map[string]interface{}

// AggFunc is an aggregate function understood by every repository
type AggFunc string

const (
	AggCount AggFunc = "COUNT"
	AggSum   AggFunc = "SUM"
	AggAvg   AggFunc = "AVG"
)

// Aggregate describes one aggregate column: {"views": SUM(views)}
type Aggregate struct {
	Alias string
	Func  AggFunc
	Field string // ignored for COUNT
}

// GroupKey is a GROUP BY column. With Day set the field is a timestamp
// truncated to its calendar date (YYYY-MM-DD, UTC).
type GroupKey struct {
	Field string
	Alias string
	Day   bool
}

// Op is a comparison operator used in filters
type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "<>"
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpIn  Op = "IN"
)

// Condition is a single WHERE predicate
type Condition struct {
	Field string
	Op    Op
	Value interface{}
}

// Filter is a conjunction of conditions
type Filter []Condition

// Eq is shorthand for an equality condition
func Eq(field string, value interface{}) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// Since is shorthand for field >= t
func Since(field string, t time.Time) Condition {
	return Condition{Field: field, Op: OpGte, Value: t}
}

// With returns a copy of f with extra conditions appended
func (f Filter) With(conds ...Condition) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}

// AggregateQuery represents a generic aggregation query
type AggregateQuery struct {
	Table      string      // Table name
	GroupBy    []GroupKey  // GROUP BY columns
	Aggregates []Aggregate // Aggregate columns
	Filter     Filter      // WHERE conditions
	DateRange  *DateRange  // Date range filter
}

// DateRange represents a time period for filtering, inclusive on both ends
type DateRange struct {
	Start time.Time
	End   time.Time
	Field string // Date field to filter on (e.g., "created_at")
}

// Sort orders FindRecent results
type Sort struct {
	Field string
	Desc  bool
}

// TimeRange is a resolved reporting window plus its day buckets
type TimeRange struct {
	Period      string    `json:"period"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	BucketDates []string  `json:"bucketDates"`
}

// On returns a DateRange over the window for the given timestamp field
func (tr TimeRange) On(field string) *DateRange {
	return &DateRange{Start: tr.Start, End: tr.End, Field: field}
}

// Days returns the number of day buckets in the window
func (tr TimeRange) Days() int {
	return len(tr.BucketDates)
}

// DailyPoint is one day of a section's daily series
type DailyPoint struct {
	Date    string             `json:"date"`
	Metrics map[string]float64 `json:"metrics"`
}

// GroupCount is one entry of a group breakdown
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// ChartSeries is a set of named value arrays sharing one label axis
type ChartSeries struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// Series represents a data series in a chart
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// PieChartData represents pie chart specific data
type PieChartData struct {
	Type   string    `json:"type"` // "pie" or "donut"
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// CompletionPoint is a raw (completion %, count, views) row used to build
// the completion histogram
type CompletionPoint struct {
	Percent float64 `json:"percent"`
	Count   int64   `json:"count"`
	Views   float64 `json:"views"`
}

// CompletionBucket is one bar of the completion histogram
type CompletionBucket struct {
	Label    string  `json:"label"`
	Count    int64   `json:"count"`
	AvgViews float64 `json:"avgViews"`
}

// HealthInputs are the signals the health score is derived from
type HealthInputs struct {
	StoreConnected bool
	MemoryPercent  float64
	RecentErrors   int64
}

// Deduction records one penalty applied to the health score
type Deduction struct {
	Reason string `json:"reason"`
	Points int    `json:"points"`
}

// HealthScore is the 0-100 composite operational indicator
type HealthScore struct {
	Score      int         `json:"score"`
	Status     string      `json:"status"`
	Deductions []Deduction `json:"deductions"`
}
