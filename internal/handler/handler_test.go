package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parishdesk/reporting/internal/handler/dto"
)

func TestHandler_Info(t *testing.T) {
	rec := httptest.NewRecorder()
	New().Info(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var info map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info["service"] != "parishdesk-reporting" || info["version"] != Version {
		t.Errorf("unexpected info %v", info)
	}
}

func TestHandler_Fallbacks(t *testing.T) {
	h := New()

	tests := []struct {
		name       string
		serve      http.HandlerFunc
		method     string
		wantStatus int
		wantCode   string
	}{
		{"unknown route", h.NotFound, http.MethodGet, http.StatusNotFound, "NOT_FOUND"},
		{"write to read-only api", h.MethodNotAllowed, http.MethodDelete, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.serve(rec, httptest.NewRequest(tt.method, "/api/v1/dashboard/x", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var body dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.wantCode || body.Error == "" {
				t.Errorf("unexpected error body %+v", body)
			}
		})
	}
}
