package analytics

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// LimitedRepository caps the number of in-flight queries against the
// wrapped repository. Callers block until a slot frees or ctx ends.
type LimitedRepository struct {
	repo QueryRepository
	sem  *semaphore.Weighted
}

// WithQueryLimit wraps repo so at most max queries run at once. A max of
// zero or less returns repo unchanged.
func WithQueryLimit(repo QueryRepository, max int64) QueryRepository {
	if max <= 0 {
		return repo
	}
	return &LimitedRepository{repo: repo, sem: semaphore.NewWeighted(max)}
}

func (l *LimitedRepository) Aggregate(ctx context.Context, query AggregateQuery) ([]Row, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.repo.Aggregate(ctx, query)
}

func (l *LimitedRepository) Count(ctx context.Context, table string, filter Filter) (int64, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer l.sem.Release(1)
	return l.repo.Count(ctx, table, filter)
}

func (l *LimitedRepository) FindRecent(ctx context.Context, table string, filter Filter, limit int, sort Sort) ([]Row, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.repo.FindRecent(ctx, table, filter, limit, sort)
}

// PingContext forwards to the wrapped repository when it can ping
func (l *LimitedRepository) PingContext(ctx context.Context) error {
	if p, ok := l.repo.(Pinger); ok {
		return p.PingContext(ctx)
	}
	return nil
}
