package report

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Placeholder modes accepted by NewEmptyStateStrategy.
const (
	PlaceholderOff    = "off"
	PlaceholderSeeded = "seeded"
	PlaceholderRandom = "random"
)

// EmptyStateStrategy fills an all-zero series with demo values.
type EmptyStateStrategy interface {
	Fill(buckets []MonthBucket) []MonthBucket
}

// NoPlaceholder leaves empty series empty.
type NoPlaceholder struct{}

// Fill returns the input unchanged.
func (NoPlaceholder) Fill(buckets []MonthBucket) []MonthBucket {
	return buckets
}

// seededPlaceholder draws values from one rand source shared by every Fill,
// so each series of a build gets its own values. The same seed always
// produces the same sequence of series.
type seededPlaceholder struct {
	mu       sync.Mutex
	rng      *rand.Rand
	maxCount int64
	maxTotal int64
}

// SeededPlaceholder returns a deterministic strategy.
func SeededPlaceholder(seed int64) EmptyStateStrategy {
	return &seededPlaceholder{rng: rand.New(rand.NewSource(seed)), maxCount: 50, maxTotal: 5000}
}

// RandomPlaceholder returns a strategy seeded from the clock.
func RandomPlaceholder() EmptyStateStrategy {
	return SeededPlaceholder(time.Now().UnixNano())
}

func (p *seededPlaceholder) Fill(buckets []MonthBucket) []MonthBucket {
	out := cloneBuckets(buckets)

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range out {
		out[i].Count = p.rng.Int63n(p.maxCount) + 1
		out[i].Total = decimal.NewFromInt(p.rng.Int63n(p.maxTotal) + 100)
	}
	return out
}

// NewEmptyStateStrategy maps a configured mode to a strategy.
func NewEmptyStateStrategy(mode string, seed int64) (EmptyStateStrategy, error) {
	switch mode {
	case "", PlaceholderOff:
		return NoPlaceholder{}, nil
	case PlaceholderSeeded:
		return SeededPlaceholder(seed), nil
	case PlaceholderRandom:
		return RandomPlaceholder(), nil
	default:
		return nil, fmt.Errorf("unknown placeholder mode %q", mode)
	}
}

// ApplyEmptyState substitutes placeholder values only when the reduced
// series is entirely empty. The flag tells callers the data is not real.
func ApplyEmptyState(buckets []MonthBucket, strategy EmptyStateStrategy) ([]MonthBucket, bool) {
	if strategy == nil || !IsEmpty(buckets) {
		return buckets, false
	}
	if _, off := strategy.(NoPlaceholder); off {
		return buckets, false
	}
	filled := strategy.Fill(buckets)
	return filled, !IsEmpty(filled)
}
