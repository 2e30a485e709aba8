package models

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
)

func TestGenerateDemo_IsDeterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := GenerateDemo(now, 40, 7)
	b := GenerateDemo(now, 40, 7)

	require.Len(t, a.Users, 40)
	assert.Equal(t, a.Users[0].ID, b.Users[0].ID)
	assert.Equal(t, len(a.Resumes), len(b.Resumes))
	assert.Len(t, a.Admins, 4)
	assert.Len(t, a.Activity, 120)

	for _, u := range a.Users {
		assert.False(t, u.CreatedAt.After(now))
		if u.LastLogin != nil {
			assert.False(t, u.LastLogin.Before(u.CreatedAt))
		}
	}
}

func TestDataset_LoadIntoMemoryStore(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := GenerateDemo(now, 25, 1)

	repo := analytics.NewMemoryRepository()
	d.Load(repo)

	ctx := context.Background()
	users, err := repo.Count(ctx, analytics.TableUsers, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(25), users)

	resumes, err := repo.Count(ctx, analytics.TableResumes, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(d.Resumes)), resumes)

	failedLogins, err := repo.Count(ctx, analytics.TableActivity, analytics.Filter{analytics.Eq("action", "login_failed")})
	require.NoError(t, err)
	failed, err := repo.Count(ctx, analytics.TableActivity, analytics.Filter{analytics.Eq("status", "failed")})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, failed, failedLogins)
}

func TestDataset_WriteAndRead(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := GenerateDemo(now, 5, 3)

	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, d))
	assert.Contains(t, buf.String(), `"activity_logs"`)

	got, err := ReadDataset(&buf)
	require.NoError(t, err)
	assert.Len(t, got.Users, 5)
	assert.Equal(t, len(d.Resumes), len(got.Resumes))
	assert.Equal(t, d.Users[0].Email, got.Users[0].Email)
	assert.True(t, d.Users[0].CreatedAt.Equal(got.Users[0].CreatedAt))

	_, err = ReadDataset(strings.NewReader("{not json"))
	assert.Error(t, err)

	_, err = LoadDatasetFile("does-not-exist.json")
	assert.Error(t, err)
}
