package handler

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/parishdesk/reporting/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	for _, name := range sortedKeys(snap.Sources) {
		c := snap.Sources[name]
		writeMetric(w, "parishdesk_source_fetch_total{source=%q,status=\"success\"} %d\n", name, c.Success)
		writeMetric(w, "parishdesk_source_fetch_total{source=%q,status=\"failed\"} %d\n", name, c.Failed)
		writeMetric(w, "parishdesk_source_fetch_duration_seconds_count{source=%q} %d\n", name, c.DurationCount)
		writeMetric(w, "parishdesk_source_fetch_duration_seconds_sum{source=%q} %.6f\n", name, float64(c.DurationTotalNs)/1e9)
	}
	for _, name := range sortedKeys(snap.RecordsSkipped) {
		writeMetric(w, "parishdesk_records_skipped_total{metric=%q} %d\n", name, snap.RecordsSkipped[name])
	}
	for _, name := range sortedKeys(snap.Placeholders) {
		writeMetric(w, "parishdesk_placeholder_applied_total{metric=%q} %d\n", name, snap.Placeholders[name])
	}

	writeMetric(w, "parishdesk_snapshots_built_total{result=\"complete\"} %d\n", snap.SnapshotsBuilt-snap.SnapshotsPartial)
	writeMetric(w, "parishdesk_snapshots_built_total{result=\"partial\"} %d\n", snap.SnapshotsPartial)
	writeMetric(w, "parishdesk_snapshot_build_duration_seconds_count %d\n", snap.SnapshotBuildCount)
	writeMetric(w, "parishdesk_snapshot_build_duration_seconds_sum %.6f\n", float64(snap.SnapshotBuildTotalNs)/1e9)
	writeMetric(w, "parishdesk_snapshot_cache_hits_total %d\n", snap.SnapshotCacheHits)
	writeMetric(w, "parishdesk_snapshot_cache_misses_total %d\n", snap.SnapshotCacheMisses)

	writeMetric(w, "parishdesk_notices_published_total{status=\"success\"} %d\n", snap.NoticesPublished)
	writeMetric(w, "parishdesk_notices_published_total{status=\"dropped\"} %d\n", snap.NoticesDropped)
}

func writeMetric(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
