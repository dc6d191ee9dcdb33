package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Accessor extracts the fields the reducer needs from an event.
// AmountOf is optional; count-only metrics leave it nil.
type Accessor[E any] struct {
	TimestampOf func(E) (time.Time, bool)
	AmountOf    func(E) (decimal.Decimal, bool)
}

// ReduceStats describes one aggregation pass.
type ReduceStats struct {
	Matched int
	Skipped int
}

// Reduce assigns every event to its month bucket and returns a new sequence.
// Events without a usable timestamp, or outside the window, are skipped.
func Reduce[E any](buckets []MonthBucket, events []E, acc Accessor[E]) []MonthBucket {
	out, _ := ReduceWithStats(buckets, events, acc)
	return out
}

// ReduceWithStats is Reduce plus the matched/skipped tally.
func ReduceWithStats[E any](buckets []MonthBucket, events []E, acc Accessor[E]) ([]MonthBucket, ReduceStats) {
	out := cloneBuckets(buckets)
	var stats ReduceStats
	if acc.TimestampOf == nil {
		stats.Skipped = len(events)
		return out, stats
	}

	index := make(map[MonthKey]int, len(out))
	for i, b := range out {
		index[b.Key] = i
	}

	for _, event := range events {
		ts, ok := acc.TimestampOf(event)
		if !ok || ts.IsZero() {
			stats.Skipped++
			continue
		}
		i, ok := index[KeyOf(ts)]
		if !ok {
			stats.Skipped++
			continue
		}

		out[i].Count++
		if acc.AmountOf != nil {
			if amount, ok := acc.AmountOf(event); ok {
				out[i].Total = out[i].Total.Add(amount)
			}
		}
		stats.Matched++
	}

	return out, stats
}
