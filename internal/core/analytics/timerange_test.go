package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

func TestResolveRange_PeriodTokens(t *testing.T) {
	cases := []struct {
		token string
		start time.Time
		days  int
	}{
		{"24h", fixedNow.Add(-24 * time.Hour), 2},
		{"7d", fixedNow.AddDate(0, 0, -7), 8},
		{"30d", fixedNow.AddDate(0, 0, -30), 31},
		{"90d", fixedNow.AddDate(0, 0, -90), 91},
		{"1y", fixedNow.AddDate(-1, 0, 0), 366},
	}

	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			tr, err := ResolveRange(tc.token, "", "", fixedNow)
			require.NoError(t, err)

			assert.Equal(t, tc.token, tr.Period)
			assert.Equal(t, tc.start, tr.Start)
			assert.Equal(t, fixedNow, tr.End)
			assert.Len(t, tr.BucketDates, tc.days)

			wantDays := int(tr.End.Sub(tr.Start).Hours()/24) + 1
			assert.Equal(t, wantDays, len(tr.BucketDates))

			for i := 1; i < len(tr.BucketDates); i++ {
				assert.Less(t, tr.BucketDates[i-1], tr.BucketDates[i], "buckets must be strictly ascending")
			}
			assert.Equal(t, DayKey(tr.Start), tr.BucketDates[0])
			assert.Equal(t, DayKey(tr.End), tr.BucketDates[len(tr.BucketDates)-1])
		})
	}
}

func TestResolveRange_UnknownTokenFallsBackTo30d(t *testing.T) {
	for _, token := range []string{"", "2w", "forever"} {
		tr, err := ResolveRange(token, "", "", fixedNow)
		require.NoError(t, err)
		assert.Equal(t, DefaultPeriod, tr.Period)
		assert.Equal(t, fixedNow.AddDate(0, 0, -30), tr.Start)
	}
}

func TestResolveRange_TokenIsCaseInsensitive(t *testing.T) {
	tr, err := ResolveRange(" 7D ", "", "", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "7d", tr.Period)
}

func TestResolveRange_ExplicitDates(t *testing.T) {
	tr, err := ResolveRange("7d", "2025-01-01", "2025-01-03", fixedNow)
	require.NoError(t, err)

	assert.Equal(t, PeriodCustom, tr.Period)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), tr.Start)
	assert.Equal(t, time.Date(2025, 1, 3, 23, 59, 59, 999000000, time.UTC), tr.End)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, tr.BucketDates)
}

func TestResolveRange_ExplicitRFC3339(t *testing.T) {
	tr, err := ResolveRange("", "2025-01-01T10:00:00Z", "2025-01-01T12:00:00Z", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01"}, tr.BucketDates)
}

func TestResolveRange_InvalidExplicitDates(t *testing.T) {
	cases := map[string][2]string{
		"start after end": {"2025-02-01", "2025-01-01"},
		"missing end":     {"2025-01-01", ""},
		"missing start":   {"", "2025-01-01"},
		"garbage":         {"yesterday", "2025-01-01"},
	}

	for name, dates := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ResolveRange("", dates[0], dates[1], fixedNow)
			require.Error(t, err)

			var rangeErr *InvalidRangeError
			assert.True(t, errors.As(err, &rangeErr))
		})
	}
}

func TestBucketDates_SingleDay(t *testing.T) {
	start := time.Date(2025, 5, 1, 1, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 1, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2025-05-01"}, BucketDates(start, end))
}

func TestBucketDates_CrossesMonthAndLeapDay(t *testing.T) {
	start := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, BucketDates(start, end))
}

func TestNewTimeRange_RejectsEmptyWindow(t *testing.T) {
	_, err := NewTimeRange("custom", fixedNow, fixedNow)
	var rangeErr *InvalidRangeError
	assert.True(t, errors.As(err, &rangeErr))
}
