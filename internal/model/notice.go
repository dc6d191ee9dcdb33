package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NoticeLevel is the severity shown to the operator.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice codes emitted by the dashboard.
const (
	NoticeSourceUnavailable  = "source_unavailable"
	NoticePlaceholderApplied = "placeholder_applied"
	NoticeSnapshotReady      = "snapshot_ready"
)

// Notice is a user-facing message about a dashboard build.
type Notice struct {
	ID         string      `json:"id"`
	Level      NoticeLevel `json:"level"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Metric     string      `json:"metric,omitempty"`
	SnapshotID string      `json:"snapshot_id,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewNotice creates a notice stamped with a fresh ULID.
func NewNotice(level NoticeLevel, code, message string, createdAt time.Time) Notice {
	return Notice{
		ID:        ulid.Make().String(),
		Level:     level,
		Code:      code,
		Message:   message,
		CreatedAt: createdAt.UTC(),
	}
}
