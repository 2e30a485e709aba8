package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
)

var fixedNow = time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return fixedNow.AddDate(0, 0, -n)
}

type staticProbe struct {
	stats RuntimeStats
}

func (p staticProbe) Read() RuntimeStats { return p.stats }

// fixtureRepo holds a small dataset whose 7d numbers are worked out by hand
// in the tests
func fixtureRepo() *analytics.MemoryRepository {
	repo := analytics.NewMemoryRepository()

	repo.Insert(analytics.TableUsers,
		analytics.Row{"id": "u1", "name": "Ada", "email": "ada@example.com", "role": "user", "status": "active",
			"is_verified": true, "subscription": "premium", "last_login": fixedNow.Add(-time.Hour), "created_at": daysAgo(1)},
		analytics.Row{"id": "u2", "name": "Grace", "email": "grace@example.com", "role": "user", "status": "active",
			"is_verified": false, "subscription": "free", "last_login": daysAgo(20), "created_at": daysAgo(3)},
		analytics.Row{"id": "u3", "name": "Linus", "email": "linus@example.com", "role": "user", "status": "inactive",
			"is_verified": false, "subscription": "free", "last_login": nil, "created_at": daysAgo(40)},
		analytics.Row{"id": "u4", "name": "Barbara", "email": "barbara@example.com", "role": "beta", "status": "suspended",
			"is_verified": true, "subscription": "enterprise", "last_login": nil, "created_at": daysAgo(2)},
	)

	repo.Insert(analytics.TableResumes,
		analytics.Row{"id": "r1", "user_id": "u1", "title": "Backend", "template": "modern", "status": "published",
			"completion_percentage": 100.0, "views": int64(50), "downloads": int64(5), "is_public": true, "created_at": daysAgo(1)},
		analytics.Row{"id": "r2", "user_id": "u1", "title": "Frontend", "template": "classic", "status": "draft",
			"completion_percentage": 30.0, "views": int64(10), "downloads": int64(1), "is_public": false, "created_at": daysAgo(3)},
		analytics.Row{"id": "r3", "user_id": "u2", "title": "Data", "template": "modern", "status": "published",
			"completion_percentage": 80.0, "views": int64(100), "downloads": int64(20), "is_public": true, "created_at": daysAgo(40)},
		analytics.Row{"id": "r4", "user_id": "u4", "title": "Design", "template": "minimal", "status": "draft",
			"completion_percentage": 10.0, "views": int64(0), "downloads": int64(0), "is_public": false, "created_at": fixedNow.Add(-time.Hour)},
	)

	repo.Insert(analytics.TableAdmins,
		analytics.Row{"id": "a1", "name": "Root", "email": "root@example.com", "role": "admin", "status": "active",
			"last_login": daysAgo(1), "created_at": daysAgo(60)},
		analytics.Row{"id": "a2", "name": "Mod", "email": "mod@example.com", "role": "moderator", "status": "active",
			"last_login": daysAgo(10), "created_at": daysAgo(5)},
	)

	repo.Insert(analytics.TableActivity,
		analytics.Row{"id": "l1", "admin_id": "a1", "action": "login", "resource": "auth", "status": "success",
			"response_time_ms": 100.0, "ip_address": "10.0.0.1", "created_at": daysAgo(1)},
		analytics.Row{"id": "l2", "admin_id": "a1", "action": "login_failed", "resource": "auth", "status": "failed",
			"response_time_ms": 50.0, "ip_address": "10.0.0.1", "created_at": daysAgo(1)},
		analytics.Row{"id": "l3", "admin_id": "a2", "action": "update_user", "resource": "users", "status": "success",
			"response_time_ms": 200.0, "ip_address": "10.0.0.2", "created_at": daysAgo(3)},
		analytics.Row{"id": "l4", "admin_id": "a1", "action": "login_failed", "resource": "auth", "status": "failed",
			"response_time_ms": 60.0, "ip_address": "10.0.0.1", "created_at": fixedNow.Add(-30 * time.Minute)},
		analytics.Row{"id": "l5", "admin_id": "a2", "action": "export_data", "resource": "exports", "status": "success",
			"response_time_ms": 40.0, "ip_address": "10.0.0.2", "created_at": daysAgo(20)},
	)

	return repo
}

func newTestReportService(repo analytics.QueryRepository, opts ReportOptions) *ReportService {
	if opts.Probe == nil {
		opts.Probe = staticProbe{stats: RuntimeStats{MemoryPercent: 50, Goroutines: 12, UptimeSeconds: 3600}}
	}
	opts.Now = func() time.Time { return fixedNow }
	return NewReportService(repo, opts)
}

func sevenDays(t *testing.T) analytics.TimeRange {
	t.Helper()
	tr, err := analytics.ResolveRange("7d", "", "", fixedNow)
	require.NoError(t, err)
	return tr
}

var errStoreDown = errors.New("store down")

// failingRepository fails every query against one table
type failingRepository struct {
	analytics.QueryRepository
	table string
}

func (f *failingRepository) Aggregate(ctx context.Context, q analytics.AggregateQuery) ([]analytics.Row, error) {
	if q.Table == f.table {
		return nil, errStoreDown
	}
	return f.QueryRepository.Aggregate(ctx, q)
}

func (f *failingRepository) Count(ctx context.Context, table string, filter analytics.Filter) (int64, error) {
	if table == f.table {
		return 0, errStoreDown
	}
	return f.QueryRepository.Count(ctx, table, filter)
}

func (f *failingRepository) FindRecent(ctx context.Context, table string, filter analytics.Filter, limit int, s analytics.Sort) ([]analytics.Row, error) {
	if table == f.table {
		return nil, errStoreDown
	}
	return f.QueryRepository.FindRecent(ctx, table, filter, limit, s)
}

// blockingRepository waits for the context before answering
type blockingRepository struct {
	analytics.QueryRepository
}

func (b *blockingRepository) Count(ctx context.Context, table string, filter analytics.Filter) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (b *blockingRepository) Aggregate(ctx context.Context, q analytics.AggregateQuery) ([]analytics.Row, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingRepository) FindRecent(ctx context.Context, table string, filter analytics.Filter, limit int, s analytics.Sort) ([]analytics.Row, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// stalledRepository ignores the context and holds every Count until
// release is closed, like a driver stuck on a dead connection
type stalledRepository struct {
	analytics.QueryRepository
	release chan struct{}
}

func (s *stalledRepository) Count(ctx context.Context, table string, filter analytics.Filter) (int64, error) {
	<-s.release
	return s.QueryRepository.Count(ctx, table, filter)
}
