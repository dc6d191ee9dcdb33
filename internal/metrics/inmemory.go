package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// SourceCounters holds per-source fetch counters.
type SourceCounters struct {
	Success         uint64
	Failed          uint64
	DurationCount   uint64
	DurationTotalNs int64
}

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Sources              map[string]SourceCounters
	RecordsSkipped       map[string]uint64
	Placeholders         map[string]uint64
	SnapshotsBuilt       uint64
	SnapshotsPartial     uint64
	SnapshotBuildCount   uint64
	SnapshotBuildTotalNs int64
	SnapshotCacheHits    uint64
	SnapshotCacheMisses  uint64
	NoticesPublished     uint64
	NoticesDropped       uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	mu             sync.Mutex
	sources        map[string]*SourceCounters
	recordsSkipped map[string]uint64
	placeholders   map[string]uint64

	snapshotsBuilt       uint64
	snapshotsPartial     uint64
	snapshotBuildCount   uint64
	snapshotBuildTotalNs int64
	snapshotCacheHits    uint64
	snapshotCacheMisses  uint64
	noticesPublished     uint64
	noticesDropped       uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		sources:        make(map[string]*SourceCounters),
		recordsSkipped: make(map[string]uint64),
		placeholders:   make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	sources := make(map[string]SourceCounters, len(m.sources))
	for name, c := range m.sources {
		sources[name] = *c
	}
	skipped := make(map[string]uint64, len(m.recordsSkipped))
	for k, v := range m.recordsSkipped {
		skipped[k] = v
	}
	placeholders := make(map[string]uint64, len(m.placeholders))
	for k, v := range m.placeholders {
		placeholders[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		Sources:              sources,
		RecordsSkipped:       skipped,
		Placeholders:         placeholders,
		SnapshotsBuilt:       atomic.LoadUint64(&m.snapshotsBuilt),
		SnapshotsPartial:     atomic.LoadUint64(&m.snapshotsPartial),
		SnapshotBuildCount:   atomic.LoadUint64(&m.snapshotBuildCount),
		SnapshotBuildTotalNs: atomic.LoadInt64(&m.snapshotBuildTotalNs),
		SnapshotCacheHits:    atomic.LoadUint64(&m.snapshotCacheHits),
		SnapshotCacheMisses:  atomic.LoadUint64(&m.snapshotCacheMisses),
		NoticesPublished:     atomic.LoadUint64(&m.noticesPublished),
		NoticesDropped:       atomic.LoadUint64(&m.noticesDropped),
	}
}

func (m *InMemoryRecorder) source(name string) *SourceCounters {
	c, ok := m.sources[name]
	if !ok {
		c = &SourceCounters{}
		m.sources[name] = c
	}
	return c
}

// IncSourceFetch counts a fetch outcome for a source.
func (m *InMemoryRecorder) IncSourceFetch(source, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status == StatusSuccess {
		m.source(source).Success++
	} else {
		m.source(source).Failed++
	}
}

// ObserveSourceFetchDuration records fetch latency for a source.
func (m *InMemoryRecorder) ObserveSourceFetchDuration(source string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.source(source)
	c.DurationCount++
	c.DurationTotalNs += duration.Nanoseconds()
}

// AddRecordsSkipped counts records the reducer could not place.
func (m *InMemoryRecorder) AddRecordsSkipped(metric string, n int) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.recordsSkipped[metric] += uint64(n)
	m.mu.Unlock()
}

// IncSnapshotBuilt increments the snapshot counter.
func (m *InMemoryRecorder) IncSnapshotBuilt(partial bool) {
	atomic.AddUint64(&m.snapshotsBuilt, 1)
	if partial {
		atomic.AddUint64(&m.snapshotsPartial, 1)
	}
}

// ObserveSnapshotBuildDuration records build duration.
func (m *InMemoryRecorder) ObserveSnapshotBuildDuration(duration time.Duration) {
	atomic.AddUint64(&m.snapshotBuildCount, 1)
	atomic.AddInt64(&m.snapshotBuildTotalNs, duration.Nanoseconds())
}

// IncSnapshotCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncSnapshotCacheHit() {
	atomic.AddUint64(&m.snapshotCacheHits, 1)
}

// IncSnapshotCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncSnapshotCacheMiss() {
	atomic.AddUint64(&m.snapshotCacheMisses, 1)
}

// IncPlaceholderApplied counts placeholder substitutions per metric.
func (m *InMemoryRecorder) IncPlaceholderApplied(metric string) {
	m.mu.Lock()
	m.placeholders[metric]++
	m.mu.Unlock()
}

// IncNoticePublished counts notice deliveries.
func (m *InMemoryRecorder) IncNoticePublished(status string) {
	if status == StatusSuccess {
		atomic.AddUint64(&m.noticesPublished, 1)
		return
	}
	atomic.AddUint64(&m.noticesDropped, 1)
}
