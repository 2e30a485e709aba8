package analytics

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepository is an in-process QueryRepository over plain rows. It backs
// STORE_DRIVER=memory, the reportctl seed files and the tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	tables  map[string][]Row
	pingErr error
}

// NewMemoryRepository creates an empty store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tables: make(map[string][]Row)}
}

// Insert appends rows to a table
func (m *MemoryRepository) Insert(table string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range rows {
		m.tables[table] = append(m.tables[table], copyRow(row))
	}
}

// SetPingError makes PingContext fail with err until cleared with nil
func (m *MemoryRepository) SetPingError(err error) {
	m.mu.Lock()
	m.pingErr = err
	m.mu.Unlock()
}

// PingContext reports the configured ping error, if any
func (m *MemoryRepository) PingContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingErr
}

// Aggregate evaluates the query over the in-memory rows
func (m *MemoryRepository) Aggregate(ctx context.Context, query AggregateQuery) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filter := query.Filter
	if query.DateRange != nil {
		filter = filter.With(Between(query.DateRange.Field, query.DateRange.Start, query.DateRange.End)...)
	}

	matched, err := m.match(query.Table, filter)
	if err != nil {
		return nil, err
	}

	type group struct {
		keys   Row
		rows   []Row
		sortBy string
	}

	groups := make(map[string]*group)
	order := make([]string, 0)

	for _, row := range matched {
		keys := Row{}
		parts := make([]string, 0, len(query.GroupBy))
		for _, gk := range query.GroupBy {
			value := row[gk.Field]
			if gk.Day {
				if t, ok := value.(time.Time); ok {
					value = DayKey(t)
				} else {
					value = nil
				}
			}
			keys[aliasOf(gk.Alias, gk.Field)] = value
			parts = append(parts, FormatLabel(value))
		}

		id := strings.Join(parts, "\x00")
		g, ok := groups[id]
		if !ok {
			g = &group{keys: keys, sortBy: id}
			groups[id] = g
			order = append(order, id)
		}
		g.rows = append(g.rows, row)
	}

	// an ungrouped aggregate always yields one row, even over no data
	if len(query.GroupBy) == 0 && len(groups) == 0 {
		groups[""] = &group{keys: Row{}}
		order = append(order, "")
	}

	sort.Strings(order)

	results := make([]Row, 0, len(order))
	for _, id := range order {
		g := groups[id]
		out := copyRow(g.keys)
		for _, agg := range query.Aggregates {
			alias := aliasOf(agg.Alias, strings.ToLower(string(agg.Func)))
			value, err := evalAggregate(agg, g.rows)
			if err != nil {
				return nil, &RepositoryError{Table: query.Table, Metric: alias, Err: err}
			}
			out[alias] = value
		}
		results = append(results, out)
	}

	return results, nil
}

// Count returns the number of rows matching filter
func (m *MemoryRepository) Count(ctx context.Context, table string, filter Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	matched, err := m.match(table, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// FindRecent returns up to limit matching rows ordered by sort
func (m *MemoryRepository) FindRecent(ctx context.Context, table string, filter Filter, limit int, s Sort) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched, err := m.match(table, filter)
	if err != nil {
		return nil, err
	}

	if s.Field != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			c, _ := compare(matched[i][s.Field], matched[j][s.Field])
			if s.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]Row, len(matched))
	for i, row := range matched {
		out[i] = copyRow(row)
	}
	return out, nil
}

func (m *MemoryRepository) match(table string, filter Filter) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]Row, 0)
	for _, row := range m.tables[table] {
		ok, err := matches(row, filter)
		if err != nil {
			return nil, &RepositoryError{Table: table, Err: err}
		}
		if ok {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func matches(row Row, filter Filter) (bool, error) {
	for _, cond := range filter {
		value, present := row[cond.Field]

		if cond.Op == OpIn {
			ok, err := containsValue(cond.Value, value)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			continue
		}

		// NULL never satisfies a comparison, same as SQL
		if !present || value == nil {
			return false, nil
		}

		c, comparable := compare(value, cond.Value)
		if !comparable {
			if cond.Op == OpNe {
				continue
			}
			return false, nil
		}

		var ok bool
		switch cond.Op {
		case OpEq:
			ok = c == 0
		case OpNe:
			ok = c != 0
		case OpGt:
			ok = c > 0
		case OpGte:
			ok = c >= 0
		case OpLt:
			ok = c < 0
		case OpLte:
			ok = c <= 0
		default:
			return false, fmt.Errorf("unsupported operator %q on %s", cond.Op, cond.Field)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func containsValue(list interface{}, value interface{}) (bool, error) {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false, fmt.Errorf("IN expects a slice, got %T", list)
	}
	for i := 0; i < rv.Len(); i++ {
		if c, ok := compare(value, rv.Index(i).Interface()); ok && c == 0 {
			return true, nil
		}
	}
	return false, nil
}

// compare orders two scalar values. ok is false for mismatched kinds.
func compare(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}

	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}

	if !isNumber(a) || !isNumber(b) {
		return 0, false
	}
	af, bf := ToFloat64(a), ToFloat64(b)
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int32, int64, uint64, float32, float64:
		return true
	}
	return false
}

func evalAggregate(agg Aggregate, rows []Row) (interface{}, error) {
	switch agg.Func {
	case AggCount:
		return int64(len(rows)), nil
	case AggSum, AggAvg:
		var sum float64
		var n int
		for _, row := range rows {
			v, ok := row[agg.Field]
			if !ok || v == nil {
				continue
			}
			sum += ToFloat64(v)
			n++
		}
		if agg.Func == AggSum {
			return sum, nil
		}
		if n == 0 {
			return 0.0, nil
		}
		return sum / float64(n), nil
	default:
		return nil, fmt.Errorf("unsupported aggregate %q", agg.Func)
	}
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
