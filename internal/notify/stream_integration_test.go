package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/parishdesk/reporting/internal/metrics"
	"github.com/parishdesk/reporting/internal/model"
	"github.com/parishdesk/reporting/internal/testutil"
)

func TestStreamPublisher_PublishAndRecent(t *testing.T) {
	client := testutil.RedisClient(t)
	ctx := context.Background()

	rec := metrics.NewInMemory()
	pub := NewStreamPublisher(client, slog.New(slog.NewTextHandler(io.Discard, nil)), rec)

	first := model.NewNotice(model.NoticeWarning, model.NoticeSourceUnavailable, "donations unavailable", time.Now())
	first.Metric = "donations"
	if _, err := pub.Publish(ctx, first); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	second := model.NewNotice(model.NoticeInfo, model.NoticeSnapshotReady, "snapshot ready", time.Now())
	if _, err := pub.Publish(ctx, second); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	got, err := pub.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != second.ID || got[1].Metric != "donations" {
		t.Errorf("unexpected order or content: %+v", got)
	}

	pub.Notify(model.NewNotice(model.NoticeInfo, model.NoticeSnapshotReady, "async", time.Now()))
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rec.Snapshot().NoticesPublished == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("async notice was not published")
}
