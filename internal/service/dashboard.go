// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/parishdesk/reporting/internal/cache"
	"github.com/parishdesk/reporting/internal/metrics"
	"github.com/parishdesk/reporting/internal/model"
	"github.com/parishdesk/reporting/internal/notify"
	"github.com/parishdesk/reporting/internal/report"
	"github.com/parishdesk/reporting/internal/source"
)

// Service errors.
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrNoMetrics        = errors.New("no metrics configured")
)

const (
	// DefaultFetchTimeout bounds a single source fetch.
	DefaultFetchTimeout = 10 * time.Second
	// DefaultConcurrency is the number of sources fetched at once.
	DefaultConcurrency = 4
	// DefaultBuildTimeout bounds a whole aggregation pass.
	DefaultBuildTimeout = 45 * time.Second
)

// SnapshotStore persists derived snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	LatestSnapshot(ctx context.Context) (*model.Snapshot, error)
}

// DashboardOptions tunes the aggregation pass.
type DashboardOptions struct {
	WindowMonths int
	Location     *time.Location
	FetchTimeout time.Duration
	BuildTimeout time.Duration
	Concurrency  int
	Placeholder  report.EmptyStateStrategy
	Formatter    *report.PercentFormatter
	Labeler      report.Labeler
}

// DashboardService fans out to every source, buckets the results and answers
// comparison queries against the stored snapshots.
type DashboardService struct {
	defs     []MetricDefinition
	store    SnapshotStore
	notifier notify.Notifier
	metrics  metrics.Recorder
	logger   *slog.Logger
	opts     DashboardOptions
	now      func() time.Time
	flight   singleflight.Group
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(
	defs []MetricDefinition,
	store SnapshotStore,
	notifier notify.Notifier,
	recorder metrics.Recorder,
	logger *slog.Logger,
	opts DashboardOptions,
) (*DashboardService, error) {
	if len(defs) == 0 {
		return nil, ErrNoMetrics
	}
	if opts.WindowMonths == 0 {
		opts.WindowMonths = report.DefaultWindowSize
	}
	if opts.WindowMonths < 0 {
		return nil, report.ErrInvalidWindow
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = DefaultBuildTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Placeholder == nil {
		opts.Placeholder = report.NoPlaceholder{}
	}
	if opts.Formatter == nil {
		opts.Formatter = report.NewPercentFormatter("en")
	}
	if opts.Labeler == nil {
		opts.Labeler = report.DefaultLabeler
	}
	if store == nil {
		store = cache.NewMemoryStore(cache.DefaultSnapshotTTL, cache.DefaultMemoryEntries)
	}
	if notifier == nil {
		notifier = notify.NewMemory(notify.MaxRecentLimit)
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &DashboardService{
		defs:     defs,
		store:    store,
		notifier: notifier,
		metrics:  recorder,
		logger:   logger.With("component", "service.dashboard"),
		opts:     opts,
		now:      time.Now,
	}, nil
}

type fetchResult struct {
	records []source.Record
	err     error
}

// Build runs one aggregation pass. Every source is fetched concurrently with
// its own timeout; a failing source yields an empty, unavailable series
// instead of failing the build. Cancelling ctx aborts the whole pass.
func (s *DashboardService) Build(ctx context.Context) (*model.Snapshot, error) {
	started := time.Now()

	results := make([]fetchResult, len(s.defs))
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, def := range s.defs {
		g.Go(func() error {
			results[i] = s.fetch(ctx, def)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	generatedAt := s.now().In(s.opts.Location)
	snap := &model.Snapshot{
		ID:           ulid.MustNew(ulid.Timestamp(generatedAt), ulid.DefaultEntropy()).String(),
		GeneratedAt:  generatedAt,
		Timezone:     s.opts.Location.String(),
		WindowMonths: s.opts.WindowMonths,
		Metrics:      make([]model.MetricSeries, 0, len(s.defs)),
	}

	var notices []model.Notice
	for i, def := range s.defs {
		series, err := s.aggregate(def, results[i], generatedAt)
		if err != nil {
			return nil, err
		}
		if series.Status == model.MetricStatusUnavailable {
			snap.DataUnavailable = true
			n := model.NewNotice(model.NoticeWarning, model.NoticeSourceUnavailable,
				fmt.Sprintf("%s data could not be loaded", def.Label), generatedAt)
			n.Metric = def.Name
			notices = append(notices, n)
		}
		if series.Placeholder {
			n := model.NewNotice(model.NoticeInfo, model.NoticePlaceholderApplied,
				fmt.Sprintf("%s has no data yet; showing sample values", def.Label), generatedAt)
			n.Metric = def.Name
			notices = append(notices, n)
		}
		snap.Metrics = append(snap.Metrics, series)
	}

	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Error("failed to save snapshot", "snapshot_id", snap.ID, "error", err)
	}

	ready := model.NewNotice(model.NoticeInfo, model.NoticeSnapshotReady, "Dashboard refreshed", generatedAt)
	if snap.DataUnavailable {
		ready.Level = model.NoticeWarning
		ready.Message = "Dashboard refreshed with missing data"
	}
	notices = append(notices, ready)
	for _, n := range notices {
		n.SnapshotID = snap.ID
		s.notifier.Notify(n)
	}

	s.metrics.IncSnapshotBuilt(snap.DataUnavailable)
	s.metrics.ObserveSnapshotBuildDuration(time.Since(started))
	s.logger.Info("snapshot built",
		"snapshot_id", snap.ID,
		"metrics", len(snap.Metrics),
		"data_unavailable", snap.DataUnavailable,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return snap, nil
}

func (s *DashboardService) fetch(ctx context.Context, def MetricDefinition) fetchResult {
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	name := def.Source.Name()
	began := time.Now()
	records, err := def.Source.Fetch(fetchCtx)
	s.metrics.ObserveSourceFetchDuration(name, time.Since(began))

	if err != nil {
		s.metrics.IncSourceFetch(name, metrics.StatusFailed)
		s.logger.Warn("source fetch failed",
			"metric", def.Name,
			"source", name,
			"error", err,
		)
		return fetchResult{err: err}
	}

	s.metrics.IncSourceFetch(name, metrics.StatusSuccess)
	return fetchResult{records: records}
}

func (s *DashboardService) aggregate(def MetricDefinition, res fetchResult, ref time.Time) (model.MetricSeries, error) {
	skeleton, err := report.BuildMonthBucketsWithLabeler(ref, s.opts.WindowMonths, s.opts.Labeler)
	if err != nil {
		return model.MetricSeries{}, fmt.Errorf("build buckets for %s: %w", def.Name, err)
	}

	series := model.MetricSeries{
		Name:    def.Name,
		Label:   def.Label,
		Source:  def.Source.Name(),
		Fields:  def.Fields,
		Buckets: skeleton,
		Status:  model.MetricStatusOK,
	}

	if res.err != nil {
		series.Status = model.MetricStatusUnavailable
		series.Error = res.err.Error()
	} else {
		acc := def.Accessor
		if acc.Location == nil {
			acc.Location = s.opts.Location
		}
		buckets, stats := report.ReduceWithStats(skeleton, res.records, acc.Accessor())
		series.Buckets = buckets
		series.Matched = stats.Matched
		series.Skipped = stats.Skipped
		s.metrics.AddRecordsSkipped(def.Name, stats.Skipped)
		if stats.Skipped > 0 {
			s.logger.Debug("records skipped", "metric", def.Name, "skipped", stats.Skipped)
		}
	}

	if filled, placeholder := report.ApplyEmptyState(series.Buckets, s.opts.Placeholder); placeholder {
		series.Buckets = filled
		series.Placeholder = true
		s.metrics.IncPlaceholderApplied(def.Name)
	}

	return series, nil
}

// Latest returns the cached snapshot unless refresh is set, the cache is
// empty, or the cached window no longer ends at the current month.
//
// Concurrent rebuilds are coalesced into one build that is detached from
// every caller and bounded by BuildTimeout. A caller that gives up only stops
// waiting; the others still receive the snapshot.
func (s *DashboardService) Latest(ctx context.Context, refresh bool) (*model.Snapshot, error) {
	if !refresh {
		snap, err := s.store.LatestSnapshot(ctx)
		switch {
		case err == nil && s.isCurrent(snap):
			s.metrics.IncSnapshotCacheHit()
			return snap, nil
		case err != nil && !errors.Is(err, cache.ErrCacheMiss):
			s.logger.Warn("snapshot store lookup failed", "error", err)
		}
		s.metrics.IncSnapshotCacheMiss()
	}

	ch := s.flight.DoChan("build", func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.BuildTimeout)
		defer cancel()
		return s.Build(buildCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Snapshot), nil
	}
}

func (s *DashboardService) isCurrent(snap *model.Snapshot) bool {
	buckets := snap.Buckets()
	if len(buckets) == 0 {
		return false
	}
	return buckets[len(buckets)-1].Key == report.KeyOf(s.now().In(s.opts.Location))
}

// Get returns a stored snapshot by ID.
func (s *DashboardService) Get(ctx context.Context, id string) (*model.Snapshot, error) {
	snap, err := s.store.GetSnapshot(ctx, id)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// resolve returns the requested snapshot, or the latest one when id is empty.
func (s *DashboardService) resolve(ctx context.Context, id string) (*model.Snapshot, error) {
	if id == "" {
		return s.Latest(ctx, false)
	}
	return s.Get(ctx, id)
}

// PeriodOptions lists the selectable months of a snapshot.
type PeriodOptions struct {
	SnapshotID string
	Periods    []report.PeriodSelection
	Current    report.PeriodSelection
	Compare    report.PeriodSelection
}

// Periods returns the dropdown options and default selections.
func (s *DashboardService) Periods(ctx context.Context, snapshotID string) (*PeriodOptions, error) {
	snap, err := s.resolve(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	buckets := snap.Buckets()
	current, compare := report.DefaultSelections(buckets)
	return &PeriodOptions{
		SnapshotID: snap.ID,
		Periods:    report.Periods(buckets),
		Current:    current,
		Compare:    compare,
	}, nil
}

// CompareInput selects two months of a snapshot. Zero keys mean the default
// selections.
type CompareInput struct {
	SnapshotID string
	Current    report.MonthKey
	Compare    report.MonthKey
}

// MetricComparison holds the comparison of every field of one series.
type MetricComparison struct {
	Metric      string                    `json:"metric"`
	Label       string                    `json:"label"`
	Status      model.MetricStatus        `json:"status"`
	Placeholder bool                      `json:"placeholder"`
	Results     []report.ComparisonResult `json:"results"`
}

// Comparison is the answer to a period comparison query.
type Comparison struct {
	SnapshotID string
	Current    report.PeriodSelection
	Compare    report.PeriodSelection
	Metrics    []MetricComparison
}

// Compare computes the change between two months for every metric of a
// snapshot. Nothing is re-fetched.
func (s *DashboardService) Compare(ctx context.Context, in CompareInput) (*Comparison, error) {
	if (!in.Current.IsZero() && !in.Current.Valid()) || (!in.Compare.IsZero() && !in.Compare.Valid()) {
		return nil, ErrInvalidPeriod
	}

	snap, err := s.resolve(ctx, in.SnapshotID)
	if err != nil {
		return nil, err
	}

	buckets := snap.Buckets()
	current, compare := report.DefaultSelections(buckets)
	if !in.Current.IsZero() {
		current = s.selection(buckets, in.Current)
	}
	if !in.Compare.IsZero() {
		compare = s.selection(buckets, in.Compare)
	}

	out := &Comparison{
		SnapshotID: snap.ID,
		Current:    current,
		Compare:    compare,
		Metrics:    make([]MetricComparison, 0, len(snap.Metrics)),
	}
	for _, series := range snap.Metrics {
		mc := MetricComparison{
			Metric:      series.Name,
			Label:       series.Label,
			Status:      series.Status,
			Placeholder: series.Placeholder,
		}
		for _, field := range series.Fields {
			mc.Results = append(mc.Results,
				report.CompareWithFormatter(series.Buckets, current.Key, compare.Key, field, s.opts.Formatter))
		}
		out.Metrics = append(out.Metrics, mc)
	}
	return out, nil
}

func (s *DashboardService) selection(buckets []report.MonthBucket, key report.MonthKey) report.PeriodSelection {
	if b, ok := report.Find(buckets, key); ok {
		return report.PeriodSelection{Key: key, Label: b.Label}
	}
	return report.PeriodSelection{Key: key, Label: s.opts.Labeler(key)}
}
