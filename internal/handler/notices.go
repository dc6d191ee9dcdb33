package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/parishdesk/reporting/internal/handler/dto"
	"github.com/parishdesk/reporting/internal/notify"
)

// NoticeHandler lists operator notices.
type NoticeHandler struct {
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewNoticeHandler creates a new NoticeHandler.
func NewNoticeHandler(notifier notify.Notifier, logger *slog.Logger) *NoticeHandler {
	return &NoticeHandler{notifier: notifier, logger: logger.With("component", "handler.notices")}
}

// Recent handles GET /api/v1/notices?limit=.
func (h *NoticeHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := notify.DefaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_PARAMETER", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	notices, err := h.notifier.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list notices failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, dto.ToNoticeListResponse(notices, limit))
}
