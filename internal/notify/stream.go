package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parishdesk/reporting/internal/metrics"
	"github.com/parishdesk/reporting/internal/model"
)

const (
	// StreamKey is the Redis stream for dashboard notices.
	StreamKey = "stream:notices"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 1000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 250 * time.Millisecond
)

// StreamPublisher appends notices to a Redis stream.
type StreamPublisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewStreamPublisher creates a new notice publisher.
func NewStreamPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *StreamPublisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &StreamPublisher{
		redis:   client,
		logger:  logger.With("component", "notify.stream"),
		metrics: recorder,
	}
}

// Publish adds a notice to the stream synchronously.
func (p *StreamPublisher) Publish(ctx context.Context, n model.Notice) (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("marshal notice: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *StreamPublisher) PublishAsync(n model.Notice) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, n)
		if err != nil {
			p.logger.Warn("failed to publish notice",
				"code", n.Code,
				"error", err,
			)
			p.metrics.IncNoticePublished("dropped")
			return
		}

		p.logger.Debug("notice published",
			"code", n.Code,
			"stream_id", streamID,
		)
		p.metrics.IncNoticePublished(metrics.StatusSuccess)
	}()
}

// Notify implements Notifier.
func (p *StreamPublisher) Notify(n model.Notice) {
	p.PublishAsync(n)
}

// Recent returns the newest notices first.
func (p *StreamPublisher) Recent(ctx context.Context, limit int) ([]model.Notice, error) {
	msgs, err := p.redis.XRevRangeN(ctx, StreamKey, "+", "-", int64(clampLimit(limit))).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange: %w", err)
	}

	notices := make([]model.Notice, 0, len(msgs))
	for _, msg := range msgs {
		payload, ok := msg.Values["payload"].(string)
		if !ok {
			continue
		}
		var n model.Notice
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			p.logger.Warn("skipping malformed notice", "stream_id", msg.ID, "error", err)
			continue
		}
		notices = append(notices, n)
	}
	return notices, nil
}
