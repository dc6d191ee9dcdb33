// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Fetch statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Source fetch metrics
	IncSourceFetch(source, status string)
	ObserveSourceFetchDuration(source string, duration time.Duration)
	AddRecordsSkipped(metric string, n int)

	// Snapshot metrics
	IncSnapshotBuilt(partial bool)
	ObserveSnapshotBuildDuration(duration time.Duration)
	IncSnapshotCacheHit()
	IncSnapshotCacheMiss()
	IncPlaceholderApplied(metric string)

	// Notice channel metrics
	IncNoticePublished(status string) // status: "success" or "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
