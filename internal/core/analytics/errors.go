package analytics

import (
	"fmt"
	"time"
)

// InvalidRangeError is returned when a requested window has bad bounds
type InvalidRangeError struct {
	Start  time.Time
	End    time.Time
	Reason string
}

func (e *InvalidRangeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid time range: %s", e.Reason)
	}
	return fmt.Sprintf("invalid time range: start %s is after end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// RepositoryError wraps a failed query with the table and metric it served
type RepositoryError struct {
	Table  string
	Metric string
	Err    error
}

func (e *RepositoryError) Error() string {
	if e.Metric != "" {
		return fmt.Sprintf("query %s.%s failed: %v", e.Table, e.Metric, e.Err)
	}
	return fmt.Sprintf("query on %s failed: %v", e.Table, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}
