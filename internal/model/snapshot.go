// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/parishdesk/reporting/internal/report"
)

// MetricStatus reports whether a series was built from live data.
type MetricStatus string

const (
	MetricStatusOK          MetricStatus = "ok"
	MetricStatusUnavailable MetricStatus = "unavailable"
)

// MetricSeries is one dashboard chart: a trailing window of month buckets
// for a single collaborator.
type MetricSeries struct {
	Name        string               `json:"name"`
	Label       string               `json:"label"`
	Source      string               `json:"source"`
	Fields      []report.Field       `json:"fields"`
	Buckets     []report.MonthBucket `json:"buckets"`
	Status      MetricStatus         `json:"status"`
	Placeholder bool                 `json:"placeholder"`
	Error       string               `json:"error,omitempty"`
	Matched     int                  `json:"matched"`
	Skipped     int                  `json:"skipped"`
}

// HasField reports whether the series exposes field for comparison.
func (m *MetricSeries) HasField(field report.Field) bool {
	for _, f := range m.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Snapshot is the immutable result of one aggregation pass.
type Snapshot struct {
	ID              string         `json:"id"` // ULID (time-sortable)
	GeneratedAt     time.Time      `json:"generated_at"`
	Timezone        string         `json:"timezone"`
	WindowMonths    int            `json:"window_months"`
	Metrics         []MetricSeries `json:"metrics"`
	DataUnavailable bool           `json:"data_unavailable"`
}

// Metric returns the named series.
func (s *Snapshot) Metric(name string) (*MetricSeries, bool) {
	for i := range s.Metrics {
		if s.Metrics[i].Name == name {
			return &s.Metrics[i], true
		}
	}
	return nil, false
}

// Buckets returns the month skeleton shared by every series. All series in a
// snapshot use the same window, so the first one is representative.
func (s *Snapshot) Buckets() []report.MonthBucket {
	if len(s.Metrics) == 0 {
		return nil
	}
	return s.Metrics[0].Buckets
}
