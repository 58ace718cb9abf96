package driving

import "context"

// Coordinator is the driving port onto the Event Coordinator
// (component E): the process's top-level entry point.
type Coordinator interface {
	// Run starts the scan, queue, and reconciliation sources and the
	// pipeline worker pool, blocking until ctx is cancelled. It then
	// waits for all in-flight work to finish before returning, logging a
	// warning if that takes longer than its configured shutdown deadline.
	Run(ctx context.Context) error

	// Stats returns a snapshot of the aggregation reducer's running
	// totals, for the health/status surface.
	Stats() CoordinatorStats
}

// CoordinatorStats is a snapshot of outcome counts since process start.
type CoordinatorStats struct {
	Indexed   int64
	Duplicate int64
	Unchanged int64
	Deleted   int64
	Empty     int64
	Failed    int64
}
