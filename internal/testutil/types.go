package testutil

import "time"

// ExecutionRecord holds the start and end times for a single kernel execution.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two executions were in flight at the same time.
func (r *ExecutionRecord) Overlaps(other *ExecutionRecord) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}
