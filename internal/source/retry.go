package source

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

const (
	retryBase   = 250 * time.Millisecond
	retryMax    = 4 * time.Second
	retryJitter = 0.2 // ±fraction applied to every delay
)

// DefaultRetryDelays are the waits before the second and third attempts.
var DefaultRetryDelays = RetryDelays(2)

// RetryDelays returns n exponential delays starting at 250ms, capped at 4s.
func RetryDelays(n int) []time.Duration {
	delays := make([]time.Duration, 0, n)
	d := retryBase
	for i := 0; i < n; i++ {
		delays = append(delays, d)
		d = min(d*4, retryMax)
	}
	return delays
}

// Retrying re-runs Fetch on transient failures. The caller's context bounds
// the whole sequence, including the waits.
type Retrying struct {
	Source
	delays []time.Duration
	logger *slog.Logger
}

// WithRetry wraps src. len(delays) is the number of retries; nil uses
// DefaultRetryDelays.
func WithRetry(src Source, delays []time.Duration, logger *slog.Logger) *Retrying {
	if delays == nil {
		delays = DefaultRetryDelays
	}
	return &Retrying{
		Source: src,
		delays: delays,
		logger: logger.With("component", "source.retry", "source", src.Name()),
	}
}

// Fetch implements Source.
func (r *Retrying) Fetch(ctx context.Context) ([]Record, error) {
	for attempt := 0; ; attempt++ {
		records, err := r.Source.Fetch(ctx)
		if err == nil || attempt >= len(r.delays) || !Transient(err) || ctx.Err() != nil {
			return records, err
		}

		delay := jittered(r.delays[attempt])
		r.logger.Warn("fetch failed, retrying",
			"attempt", attempt+1,
			"backoff_ms", delay.Milliseconds(),
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, err
		case <-timer.C:
		}
	}
}

// Transient reports whether a fetch error may succeed on retry: transport
// failures, 429 and 5xx. Misconfiguration and bad payloads are permanent.
func Transient(err error) bool {
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrUnexpectedShape) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

func jittered(d time.Duration) time.Duration {
	spread := float64(d) * retryJitter
	return time.Duration(float64(d) + (rand.Float64()*2-1)*spread)
}
