package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/parishdesk/reporting/internal/model"
	"github.com/parishdesk/reporting/internal/notify"
	"github.com/parishdesk/reporting/internal/report"
	"github.com/parishdesk/reporting/internal/service"
)

// BucketResponse is one month of a series. Total is omitted for count-only
// series.
type BucketResponse struct {
	Month string       `json:"month"` // YYYY-MM
	Label string       `json:"label"`
	Count int64        `json:"count"`
	Total *json.Number `json:"total,omitempty"`
}

// SeriesResponse is one dashboard metric.
type SeriesResponse struct {
	Name        string           `json:"name"`
	Label       string           `json:"label"`
	Source      string           `json:"source"`
	Status      string           `json:"status"`
	Placeholder bool             `json:"placeholder"`
	Error       string           `json:"error,omitempty"`
	Fields      []string         `json:"fields"`
	Matched     int              `json:"matched"`
	Skipped     int              `json:"skipped"`
	Buckets     []BucketResponse `json:"buckets"`
}

// SnapshotResponse is a dashboard snapshot.
type SnapshotResponse struct {
	ID              string           `json:"id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Timezone        string           `json:"timezone"`
	WindowMonths    int              `json:"window_months"`
	DataUnavailable bool             `json:"data_unavailable"`
	Metrics         []SeriesResponse `json:"metrics"`
}

// PeriodResponse is one selectable month.
type PeriodResponse struct {
	Month string `json:"month"`
	Label string `json:"label"`
}

// PeriodsResponse lists the dropdown options of a snapshot.
type PeriodsResponse struct {
	SnapshotID string           `json:"snapshot_id"`
	Periods    []PeriodResponse `json:"periods"`
	Current    PeriodResponse   `json:"current"`
	Compare    PeriodResponse   `json:"compare"`
}

// ResultResponse compares one field between the two selected months.
type ResultResponse struct {
	Field            string      `json:"field"`
	Current          json.Number `json:"current"`
	Previous         json.Number `json:"previous"`
	Change           json.Number `json:"change"`
	PercentageChange float64     `json:"percentage_change"`
	Capped           bool        `json:"capped"`
	Label            string      `json:"label"`
}

// MetricComparisonResponse holds the results of one metric.
type MetricComparisonResponse struct {
	Metric      string           `json:"metric"`
	Label       string           `json:"label"`
	Status      string           `json:"status"`
	Placeholder bool             `json:"placeholder"`
	Results     []ResultResponse `json:"results"`
}

// ComparisonResponse answers a period comparison.
type ComparisonResponse struct {
	SnapshotID string                     `json:"snapshot_id"`
	Current    PeriodResponse             `json:"current"`
	Compare    PeriodResponse             `json:"compare"`
	Metrics    []MetricComparisonResponse `json:"metrics"`
}

// NoticeListResponse lists recent notices, newest first.
type NoticeListResponse struct {
	Notices []model.Notice `json:"notices"`
	Count   int            `json:"count"`
	Limit   int            `json:"limit"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// ToSnapshotResponse converts a snapshot.
func ToSnapshotResponse(s *model.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		ID:              s.ID,
		GeneratedAt:     s.GeneratedAt,
		Timezone:        s.Timezone,
		WindowMonths:    s.WindowMonths,
		DataUnavailable: s.DataUnavailable,
		Metrics:         make([]SeriesResponse, 0, len(s.Metrics)),
	}
	for i := range s.Metrics {
		resp.Metrics = append(resp.Metrics, toSeriesResponse(&s.Metrics[i]))
	}
	return resp
}

func toSeriesResponse(m *model.MetricSeries) SeriesResponse {
	withTotal := m.HasField(report.FieldTotal)

	out := SeriesResponse{
		Name:        m.Name,
		Label:       m.Label,
		Source:      m.Source,
		Status:      string(m.Status),
		Placeholder: m.Placeholder,
		Error:       m.Error,
		Fields:      make([]string, 0, len(m.Fields)),
		Matched:     m.Matched,
		Skipped:     m.Skipped,
		Buckets:     make([]BucketResponse, 0, len(m.Buckets)),
	}
	for _, f := range m.Fields {
		out.Fields = append(out.Fields, string(f))
	}
	for _, b := range m.Buckets {
		br := BucketResponse{Month: b.Key.String(), Label: b.Label, Count: b.Count}
		if withTotal {
			total := number(b.Total)
			br.Total = &total
		}
		out.Buckets = append(out.Buckets, br)
	}
	return out
}

func toPeriodResponse(p report.PeriodSelection) PeriodResponse {
	if p.Key.IsZero() {
		return PeriodResponse{}
	}
	return PeriodResponse{Month: p.Key.String(), Label: p.Label}
}

// ToPeriodsResponse converts period options.
func ToPeriodsResponse(p *service.PeriodOptions) PeriodsResponse {
	resp := PeriodsResponse{
		SnapshotID: p.SnapshotID,
		Periods:    make([]PeriodResponse, 0, len(p.Periods)),
		Current:    toPeriodResponse(p.Current),
		Compare:    toPeriodResponse(p.Compare),
	}
	for _, sel := range p.Periods {
		resp.Periods = append(resp.Periods, toPeriodResponse(sel))
	}
	return resp
}

// ToComparisonResponse converts a comparison.
func ToComparisonResponse(c *service.Comparison) ComparisonResponse {
	resp := ComparisonResponse{
		SnapshotID: c.SnapshotID,
		Current:    toPeriodResponse(c.Current),
		Compare:    toPeriodResponse(c.Compare),
		Metrics:    make([]MetricComparisonResponse, 0, len(c.Metrics)),
	}
	for _, mc := range c.Metrics {
		m := MetricComparisonResponse{
			Metric:      mc.Metric,
			Label:       mc.Label,
			Status:      string(mc.Status),
			Placeholder: mc.Placeholder,
			Results:     make([]ResultResponse, 0, len(mc.Results)),
		}
		for _, r := range mc.Results {
			m.Results = append(m.Results, ResultResponse{
				Field:            string(r.Field),
				Current:          number(r.Current),
				Previous:         number(r.Previous),
				Change:           number(r.Change),
				PercentageChange: r.PercentageChange,
				Capped:           r.Capped,
				Label:            r.Label,
			})
		}
		resp.Metrics = append(resp.Metrics, m)
	}
	return resp
}

// ToNoticeListResponse wraps notices; limit is the effective limit applied.
func ToNoticeListResponse(notices []model.Notice, limit int) NoticeListResponse {
	if notices == nil {
		notices = []model.Notice{}
	}
	if limit <= 0 {
		limit = notify.DefaultRecentLimit
	}
	if limit > notify.MaxRecentLimit {
		limit = notify.MaxRecentLimit
	}
	return NoticeListResponse{Notices: notices, Count: len(notices), Limit: limit}
}
