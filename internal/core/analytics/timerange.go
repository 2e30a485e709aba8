package analytics

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day key format used for buckets and labels
const DateLayout = "2006-01-02"

// DefaultPeriod is used when the period token is empty or unknown
const DefaultPeriod = "30d"

// PeriodCustom marks a range built from explicit dates
const PeriodCustom = "custom"

var periodStarts = map[string]func(now time.Time) time.Time{
	"24h": func(now time.Time) time.Time { return now.Add(-24 * time.Hour) },
	"7d":  func(now time.Time) time.Time { return now.AddDate(0, 0, -7) },
	"30d": func(now time.Time) time.Time { return now.AddDate(0, 0, -30) },
	"90d": func(now time.Time) time.Time { return now.AddDate(0, 0, -90) },
	"1y":  func(now time.Time) time.Time { return now.AddDate(-1, 0, 0) },
}

// ResolveRange turns a period token or an explicit (startDate, endDate) pair
// into a TimeRange. Explicit dates win over the token. now is the caller's
// clock and is normalized to UTC.
func ResolveRange(period, startDate, endDate string, now time.Time) (TimeRange, error) {
	now = now.UTC()

	if startDate != "" || endDate != "" {
		return resolveExplicit(startDate, endDate)
	}

	token := strings.ToLower(strings.TrimSpace(period))
	startFn, ok := periodStarts[token]
	if !ok {
		token = DefaultPeriod
		startFn = periodStarts[DefaultPeriod]
	}

	return NewTimeRange(token, startFn(now), now)
}

// NewTimeRange builds a TimeRange over [start, end] and enumerates its buckets
func NewTimeRange(period string, start, end time.Time) (TimeRange, error) {
	start, end = start.UTC(), end.UTC()
	if !start.Before(end) {
		return TimeRange{}, &InvalidRangeError{Start: start, End: end}
	}

	return TimeRange{
		Period:      period,
		Start:       start,
		End:         end,
		BucketDates: BucketDates(start, end),
	}, nil
}

func resolveExplicit(startDate, endDate string) (TimeRange, error) {
	if startDate == "" || endDate == "" {
		return TimeRange{}, &InvalidRangeError{Reason: "both startDate and endDate are required"}
	}

	start, err := parseDate(startDate)
	if err != nil {
		return TimeRange{}, &InvalidRangeError{Reason: "bad startDate " + startDate}
	}
	end, err := parseDate(endDate)
	if err != nil {
		return TimeRange{}, &InvalidRangeError{Reason: "bad endDate " + endDate}
	}

	start = StartOfDay(start)
	end = EndOfDay(end)
	if start.After(end) {
		return TimeRange{}, &InvalidRangeError{Start: start, End: end}
	}

	return NewTimeRange(PeriodCustom, start, end)
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// StartOfDay returns 00:00:00 of t's calendar day in UTC
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59.999 of t's calendar day in UTC
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

// DayKey formats t as its UTC calendar-day bucket key
func DayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// BucketDates returns every calendar day from start's date to end's date,
// inclusive and ascending
func BucketDates(start, end time.Time) []string {
	current := StartOfDay(start)
	last := StartOfDay(end)

	dates := make([]string, 0, int(last.Sub(current).Hours()/24)+1)
	for !current.After(last) {
		dates = append(dates, current.Format(DateLayout))
		current = current.AddDate(0, 0, 1)
	}

	return dates
}
