package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Refresher keeps the latest snapshot warm by rebuilding it in the
// background, so console visits are served from the store.
type Refresher struct {
	svc      *DashboardService
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRefresher builds once at start and then every interval. A zero interval
// only performs the initial build. timeout bounds each build.
func NewRefresher(svc *DashboardService, interval, timeout time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		svc:      svc,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("component", "service.refresher"),
	}
}

// Run blocks until ctx is cancelled or Shutdown is called.
func (r *Refresher) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errors.New("refresher already started")
	}
	r.started = true
	r.done = make(chan struct{})
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	defer close(r.done)

	r.refresh(ctx, false)
	if r.interval <= 0 {
		return nil
	}

	r.logger.Info("refresher started", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping")
			return nil
		case <-ticker.C:
			r.refresh(ctx, true)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context, force bool) {
	buildCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	snap, err := r.svc.Latest(buildCtx, force)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Warn("background refresh failed", "error", err)
		}
		return
	}
	r.logger.Info("dashboard refreshed", "snapshot_id", snap.ID, "data_unavailable", snap.DataUnavailable)
}

// Shutdown stops the loop and waits for an in-flight build.
// It matches server.ShutdownFunc.
func (r *Refresher) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.logger.Warn("refresher shutdown timed out")
		return ctx.Err()
	}
}
