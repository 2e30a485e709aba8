package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_AddReplaceRemove(t *testing.T) {
	s := NewScheduler(0)

	noop := func(ctx context.Context) error { return nil }
	require.NoError(t, s.Add("health_refresh", "*/5 * * * *", noop))
	require.NoError(t, s.Add("health_refresh", "*/10 * * * *", noop))
	require.NoError(t, s.Add("cleanup", "0 3 * * *", noop))

	assert.Equal(t, []string{"cleanup", "health_refresh"}, s.Names())

	s.Remove("cleanup")
	assert.Equal(t, []string{"health_refresh"}, s.Names())
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(0)
	err := s.Add("bad", "every five minutes", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
	assert.Empty(t, s.Names())
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(0)

	var runs atomic.Int32
	require.NoError(t, s.Add("health_refresh", "0 0 1 1 *", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		runs.Add(1)
		return errors.New("logged, not returned")
	}))

	require.NoError(t, s.RunNow("health_refresh"))
	assert.Equal(t, int32(1), runs.Load())

	assert.Error(t, s.RunNow("missing"))
}
