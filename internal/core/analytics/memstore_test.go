package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore() *MemoryRepository {
	repo := NewMemoryRepository()
	repo.Insert(TableResumes,
		Row{"id": "r1", "status": "published", "template": "modern", "views": 10, "created_at": fixedNow.AddDate(0, 0, -2)},
		Row{"id": "r2", "status": "draft", "template": "modern", "views": 4, "created_at": fixedNow.AddDate(0, 0, -2)},
		Row{"id": "r3", "status": "draft", "template": "classic", "views": 1, "created_at": fixedNow.AddDate(0, 0, -5)},
		Row{"id": "r4", "status": "published", "template": nil, "views": 7, "created_at": fixedNow.AddDate(0, 0, -40)},
	)
	return repo
}

func TestMemoryRepository_Count(t *testing.T) {
	repo := seededStore()
	ctx := context.Background()

	total, err := repo.Count(ctx, TableResumes, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	drafts, err := repo.Count(ctx, TableResumes, Filter{Eq("status", "draft")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), drafts)

	recent, err := repo.Count(ctx, TableResumes, Between("created_at", fixedNow.AddDate(0, 0, -7), fixedNow))
	require.NoError(t, err)
	assert.Equal(t, int64(3), recent)

	in, err := repo.Count(ctx, TableResumes, Filter{{Field: "template", Op: OpIn, Value: []string{"classic", "minimal"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), in)

	empty, err := repo.Count(ctx, "missing_table", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty)
}

func TestMemoryRepository_AggregateGroupedByDay(t *testing.T) {
	repo := seededStore()
	tr, err := ResolveRange("7d", "", "", fixedNow)
	require.NoError(t, err)

	rows, err := repo.Aggregate(context.Background(), AggregateQuery{
		Table:   TableResumes,
		GroupBy: []GroupKey{{Field: "created_at", Alias: "date", Day: true}},
		Aggregates: []Aggregate{
			{Alias: "count", Func: AggCount},
			{Alias: "views", Func: AggSum, Field: "views"},
		},
		DateRange: tr.On("created_at"),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2025-03-10", rows[0]["date"])
	assert.Equal(t, int64(1), rows[0]["count"])
	assert.Equal(t, 1.0, rows[0]["views"])
	assert.Equal(t, "2025-03-13", rows[1]["date"])
	assert.Equal(t, int64(2), rows[1]["count"])
	assert.Equal(t, 14.0, rows[1]["views"])
}

func TestMemoryRepository_AggregateUngroupedOverNoRows(t *testing.T) {
	repo := NewMemoryRepository()
	rows, err := repo.Aggregate(context.Background(), AggregateQuery{
		Table:      TableResumes,
		Aggregates: []Aggregate{{Alias: "avg", Func: AggAvg, Field: "views"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0]["avg"])
}

func TestGroupCounts_NullKeysBecomeUnknown(t *testing.T) {
	groups, err := GroupCounts(context.Background(), seededStore(), TableResumes, "template", nil)
	require.NoError(t, err)

	byKey := map[string]int64{}
	for _, g := range groups {
		byKey[g.Key] = g.Count
	}
	assert.Equal(t, map[string]int64{"modern": 2, "classic": 1, "unknown": 1}, byKey)
}

func TestMemoryRepository_FindRecent(t *testing.T) {
	rows, err := seededStore().FindRecent(context.Background(), TableResumes, nil, 2, Sort{Field: "views", Desc: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "r1", rows[0]["id"])
	assert.Equal(t, "r4", rows[1]["id"])
}

func TestMemoryRepository_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seededStore().Count(ctx, TableResumes, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMemoryRepository_Ping(t *testing.T) {
	repo := NewMemoryRepository()
	assert.NoError(t, repo.PingContext(context.Background()))

	repo.SetPingError(errors.New("down"))
	assert.EqualError(t, repo.PingContext(context.Background()), "down")
}
