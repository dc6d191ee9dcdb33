package source

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by a source with no backing endpoint or table.
var ErrNotConfigured = errors.New("source not configured")

// Source fetches the raw records for one collaborator.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Record, error)
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Source, e.StatusCode, e.Body)
}

// Unconfigured is a placeholder source that always fails with ErrNotConfigured.
type Unconfigured string

// Name returns the source name.
func (u Unconfigured) Name() string { return string(u) }

// Fetch always fails.
func (u Unconfigured) Fetch(context.Context) ([]Record, error) {
	return nil, fmt.Errorf("%s: %w", string(u), ErrNotConfigured)
}
