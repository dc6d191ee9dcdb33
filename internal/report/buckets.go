package report

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWindowSize is the trailing window used by the dashboard.
const DefaultWindowSize = 12

// ErrInvalidWindow is returned when a window size is not positive.
var ErrInvalidWindow = errors.New("window size must be positive")

// MonthBucket accumulates occurrences and amounts for one calendar month.
type MonthBucket struct {
	Key   MonthKey        `json:"key"`
	Label string          `json:"label"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// BuildMonthBuckets returns windowSize zero-valued buckets ordered oldest to
// newest, ending at the month containing ref.
func BuildMonthBuckets(ref time.Time, windowSize int) ([]MonthBucket, error) {
	return BuildMonthBucketsWithLabeler(ref, windowSize, DefaultLabeler)
}

// BuildMonthBucketsWithLabeler is BuildMonthBuckets with a custom label format.
func BuildMonthBucketsWithLabeler(ref time.Time, windowSize int, labeler Labeler) ([]MonthBucket, error) {
	if windowSize <= 0 {
		return nil, ErrInvalidWindow
	}
	if labeler == nil {
		labeler = DefaultLabeler
	}

	newest := KeyOf(ref)
	buckets := make([]MonthBucket, windowSize)
	for i := range buckets {
		key := newest.AddMonths(i - windowSize + 1)
		buckets[i] = MonthBucket{
			Key:   key,
			Label: labeler(key),
			Total: decimal.Zero,
		}
	}
	return buckets, nil
}

// IsEmpty reports whether every bucket has a zero count and a zero total.
func IsEmpty(buckets []MonthBucket) bool {
	for _, b := range buckets {
		if b.Count != 0 || !b.Total.IsZero() {
			return false
		}
	}
	return true
}

// Find returns the bucket for key.
func Find(buckets []MonthBucket, key MonthKey) (MonthBucket, bool) {
	for _, b := range buckets {
		if b.Key == key {
			return b, true
		}
	}
	return MonthBucket{}, false
}

// Window returns the first and last keys of a bucket sequence.
func Window(buckets []MonthBucket) (from, to MonthKey) {
	if len(buckets) == 0 {
		return MonthKey{}, MonthKey{}
	}
	return buckets[0].Key, buckets[len(buckets)-1].Key
}

func cloneBuckets(buckets []MonthBucket) []MonthBucket {
	out := make([]MonthBucket, len(buckets))
	copy(out, buckets)
	return out
}
