package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresher_InitialBuildOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(t, DashboardOptions{}, marchDonations(), someUsers())
	r := NewRefresher(h.svc, 0, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, int32(1), h.donations.calls.Load())

	_, err := h.store.LatestSnapshot(context.Background())
	assert.NoError(t, err, "initial build is stored")

	assert.Error(t, r.Run(context.Background()), "a refresher runs once")
}

func TestRefresher_PeriodicRebuildAndShutdown(t *testing.T) {
	t.Parallel()

	h := newHarness(t, DashboardOptions{}, marchDonations(), someUsers())
	r := NewRefresher(h.svc, 5*time.Millisecond, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	assert.Eventually(t, func() bool { return h.donations.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	assert.GreaterOrEqual(t, h.recorder.Snapshot().SnapshotsBuilt, uint64(3))
}

func TestRefresher_ShutdownBeforeStart(t *testing.T) {
	t.Parallel()

	h := newHarness(t, DashboardOptions{}, marchDonations(), someUsers())
	r := NewRefresher(h.svc, time.Minute, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, r.Shutdown(context.Background()))
}
