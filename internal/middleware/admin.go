package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/parishdesk/reporting/internal/auth"
)

// KeyVerifier checks a presented admin key.
type KeyVerifier interface {
	Verify(key string) bool
}

// AdminKey rejects requests that do not present the configured admin key in
// "Authorization: Bearer <key>" or "X-API-Key". A nil verifier disables the gate.
func AdminKey(verifier KeyVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if verifier == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractKey(r)
			if key == "" || !verifier.Verify(key) {
				reason := "invalid_key"
				if key == "" {
					reason = "missing_key"
				}
				logger.Warn("admin key rejected",
					slog.String("reason", reason),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, "Invalid or missing API key", "UNAUTHORIZED")
				return
			}

			// Verify only accepts well-formed keys, so the prefix parses.
			prefix, _ := auth.KeyPrefix(key)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithKeyPrefix(r.Context(), prefix)))
		})
	}
}

func extractKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
