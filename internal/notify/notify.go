// Package notify delivers operator notices about dashboard builds.
package notify

import (
	"context"

	"github.com/parishdesk/reporting/internal/model"
)

// DefaultRecentLimit is used when callers ask for a non-positive limit.
const DefaultRecentLimit = 20

// MaxRecentLimit caps how many notices Recent returns.
const MaxRecentLimit = 200

// Notifier accepts notices without blocking the caller and lists recent ones.
type Notifier interface {
	Notify(n model.Notice)
	Recent(ctx context.Context, limit int) ([]model.Notice, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
