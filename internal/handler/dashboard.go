package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/parishdesk/reporting/internal/handler/dto"
	"github.com/parishdesk/reporting/internal/model"
	"github.com/parishdesk/reporting/internal/report"
	"github.com/parishdesk/reporting/internal/service"
)

// Dashboard is the subset of service.DashboardService the handlers use.
type Dashboard interface {
	Latest(ctx context.Context, refresh bool) (*model.Snapshot, error)
	Get(ctx context.Context, id string) (*model.Snapshot, error)
	Periods(ctx context.Context, snapshotID string) (*service.PeriodOptions, error)
	Compare(ctx context.Context, in service.CompareInput) (*service.Comparison, error)
}

// DashboardHandler serves dashboard snapshots and period comparisons.
type DashboardHandler struct {
	svc    Dashboard
	logger *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc Dashboard, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		svc:    svc,
		logger: logger.With("component", "handler.dashboard"),
	}
}

// Latest handles GET /api/v1/dashboard?refresh=true.
func (h *DashboardHandler) Latest(w http.ResponseWriter, r *http.Request) {
	refresh := false
	if v := r.URL.Query().Get("refresh"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PARAMETER", "refresh must be a boolean")
			return
		}
		refresh = parsed
	}

	snap, err := h.svc.Latest(r.Context(), refresh)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToSnapshotResponse(snap))
}

// Get handles GET /api/v1/dashboard/{id}.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Snapshot ID is required")
		return
	}

	snap, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToSnapshotResponse(snap))
}

// Periods handles GET /api/v1/dashboard/periods?snapshot_id=.
func (h *DashboardHandler) Periods(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.Periods(r.Context(), r.URL.Query().Get("snapshot_id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToPeriodsResponse(opts))
}

// Compare handles GET /api/v1/dashboard/compare?snapshot_id=&current=YYYY-MM&compare=YYYY-MM.
// Omitted months fall back to the latest month and the one before it.
func (h *DashboardHandler) Compare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := service.CompareInput{SnapshotID: q.Get("snapshot_id")}

	var err error
	if in.Current, err = parseMonth(q.Get("current")); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PERIOD", "current must be formatted YYYY-MM")
		return
	}
	if in.Compare, err = parseMonth(q.Get("compare")); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PERIOD", "compare must be formatted YYYY-MM")
		return
	}

	cmp, err := h.svc.Compare(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToComparisonResponse(cmp))
}

func parseMonth(s string) (report.MonthKey, error) {
	if s == "" {
		return report.MonthKey{}, nil
	}
	return report.ParseMonthKey(s)
}

func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrSnapshotNotFound):
		writeError(w, http.StatusNotFound, "SNAPSHOT_NOT_FOUND", "Snapshot not found or expired")
	case errors.Is(err, service.ErrInvalidPeriod), errors.Is(err, report.ErrInvalidMonthKey):
		writeError(w, http.StatusBadRequest, "INVALID_PERIOD", "Invalid period")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "BUILD_TIMEOUT", "Dashboard build timed out")
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		return
	default:
		h.logger.Error("dashboard request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
