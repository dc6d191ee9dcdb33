package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSourceFetch is a no-op.
func (n *NoopRecorder) IncSourceFetch(source, status string) {}

// ObserveSourceFetchDuration is a no-op.
func (n *NoopRecorder) ObserveSourceFetchDuration(source string, duration time.Duration) {}

// AddRecordsSkipped is a no-op.
func (n *NoopRecorder) AddRecordsSkipped(metric string, count int) {}

// IncSnapshotBuilt is a no-op.
func (n *NoopRecorder) IncSnapshotBuilt(partial bool) {}

// ObserveSnapshotBuildDuration is a no-op.
func (n *NoopRecorder) ObserveSnapshotBuildDuration(duration time.Duration) {}

// IncSnapshotCacheHit is a no-op.
func (n *NoopRecorder) IncSnapshotCacheHit() {}

// IncSnapshotCacheMiss is a no-op.
func (n *NoopRecorder) IncSnapshotCacheMiss() {}

// IncPlaceholderApplied is a no-op.
func (n *NoopRecorder) IncPlaceholderApplied(metric string) {}

// IncNoticePublished is a no-op.
func (n *NoopRecorder) IncNoticePublished(status string) {}
