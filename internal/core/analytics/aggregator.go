package analytics

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Aggregator runs analytics queries through gorm against PostgreSQL or
// SQLite. Only the day bucket expression differs between the two.
type Aggregator struct {
	db      *gorm.DB
	dayExpr func(field string) string
}

// NewAggregator creates a new aggregator for the dialect db was opened with
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db, dayExpr: dayExprFor(db.Dialector.Name())}
}

// dayExprFor returns the expression that truncates a timestamp column to a
// UTC YYYY-MM-DD string
func dayExprFor(dialect string) func(string) string {
	switch dialect {
	case "sqlite":
		// timestamps are stored as text with an offset; strftime
		// normalizes them to UTC
		return func(field string) string {
			return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", field)
		}
	default:
		return func(field string) string {
			return fmt.Sprintf("to_char(%s AT TIME ZONE 'UTC', 'YYYY-MM-DD')", field)
		}
	}
}

// Aggregate performs a generic aggregation query
func (a *Aggregator) Aggregate(ctx context.Context, query AggregateQuery) ([]Row, error) {
	if err := checkIdent(query.Table); err != nil {
		return nil, err
	}

	// Build SELECT clause with group keys first, then aggregates
	selectParts := make([]string, 0, len(query.GroupBy)+len(query.Aggregates))
	groupParts := make([]string, 0, len(query.GroupBy))

	for _, key := range query.GroupBy {
		expr, err := a.groupExpr(key)
		if err != nil {
			return nil, err
		}
		selectParts = append(selectParts, fmt.Sprintf("%s AS %s", expr, aliasOf(key.Alias, key.Field)))
		groupParts = append(groupParts, expr)
	}

	for _, agg := range query.Aggregates {
		expr, err := aggregateExpr(agg)
		if err != nil {
			return nil, err
		}
		selectParts = append(selectParts, fmt.Sprintf("%s AS %s", expr, aliasOf(agg.Alias, strings.ToLower(string(agg.Func)))))
	}

	if len(selectParts) == 0 {
		return nil, fmt.Errorf("aggregate query on %s selects nothing", query.Table)
	}

	db := a.db.WithContext(ctx).Table(query.Table).Select(strings.Join(selectParts, ", "))

	db, err := applyFilter(db, query.Filter)
	if err != nil {
		return nil, err
	}

	// Apply date range filter
	if query.DateRange != nil {
		if err := checkIdent(query.DateRange.Field); err != nil {
			return nil, err
		}
		db = db.Where(fmt.Sprintf("%s BETWEEN ? AND ?", query.DateRange.Field),
			query.DateRange.Start, query.DateRange.End)
	}

	if len(groupParts) > 0 {
		db = db.Group(strings.Join(groupParts, ", ")).Order(strings.Join(groupParts, ", "))
	}

	var results []map[string]interface{}
	if err := db.Find(&results).Error; err != nil {
		return nil, &RepositoryError{Table: query.Table, Err: err}
	}

	rows := make([]Row, len(results))
	for i, r := range results {
		rows[i] = Row(r)
	}

	return rows, nil
}

// Count performs a simple COUNT query with filters
func (a *Aggregator) Count(ctx context.Context, table string, filter Filter) (int64, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}

	db, err := applyFilter(a.db.WithContext(ctx).Table(table), filter)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, &RepositoryError{Table: table, Metric: "count", Err: err}
	}

	return count, nil
}

// FindRecent returns up to limit rows ordered by sort
func (a *Aggregator) FindRecent(ctx context.Context, table string, filter Filter, limit int, sort Sort) ([]Row, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}

	db, err := applyFilter(a.db.WithContext(ctx).Table(table), filter)
	if err != nil {
		return nil, err
	}

	if sort.Field != "" {
		if err := checkIdent(sort.Field); err != nil {
			return nil, err
		}
		dir := "ASC"
		if sort.Desc {
			dir = "DESC"
		}
		db = db.Order(fmt.Sprintf("%s %s", sort.Field, dir))
	}

	if limit > 0 {
		db = db.Limit(limit)
	}

	var results []map[string]interface{}
	if err := db.Find(&results).Error; err != nil {
		return nil, &RepositoryError{Table: table, Metric: "recent", Err: err}
	}

	rows := make([]Row, len(results))
	for i, r := range results {
		rows[i] = Row(r)
	}

	return rows, nil
}

// PingContext checks the underlying connection pool
func (a *Aggregator) PingContext(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func applyFilter(db *gorm.DB, filter Filter) (*gorm.DB, error) {
	for _, cond := range filter {
		if err := checkIdent(cond.Field); err != nil {
			return nil, err
		}

		switch cond.Op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
			db = db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Op), cond.Value)
		case OpIn:
			db = db.Where(fmt.Sprintf("%s IN ?", cond.Field), cond.Value)
		default:
			return nil, fmt.Errorf("unsupported operator %q on %s", cond.Op, cond.Field)
		}
	}

	return db, nil
}

func (a *Aggregator) groupExpr(key GroupKey) (string, error) {
	if err := checkIdent(key.Field); err != nil {
		return "", err
	}
	if key.Day {
		return a.dayExpr(key.Field), nil
	}
	return key.Field, nil
}

func aggregateExpr(agg Aggregate) (string, error) {
	switch agg.Func {
	case AggCount:
		return "COUNT(*)", nil
	case AggSum, AggAvg:
		if err := checkIdent(agg.Field); err != nil {
			return "", err
		}
		return fmt.Sprintf("COALESCE(%s(%s), 0)", agg.Func, agg.Field), nil
	default:
		return "", fmt.Errorf("unsupported aggregate %q", agg.Func)
	}
}

func aliasOf(alias, fallback string) string {
	if alias != "" && identPattern.MatchString(alias) {
		return alias
	}
	return fallback
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}
