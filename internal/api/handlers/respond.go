package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
	"github.com/akshad113/loom-ai-instructor/internal/instructor"
)

// errorBody is the JSON structure for error responses
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes a structured error response and logs it
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	logAttrs := []any{
		"code", code,
		"message", message,
		"status", statusCode,
		"method", r.Method,
		"path", r.URL.Path,
	}
	if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
		logAttrs = append(logAttrs, "request_id", requestID)
	}

	if statusCode >= 500 {
		slog.Error("api error", logAttrs...)
	} else {
		slog.Warn("api error", logAttrs...)
	}

	WriteJSON(w, statusCode, map[string]errorBody{
		"error": {Code: code, Message: message},
	})
}

// BadRequest writes a 400 response
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", message)
}

// writeDomainError maps a service-layer error onto the wire shape
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrLessonNotFound),
		errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrRunInFlight):
		writeError(w, r, http.StatusConflict, "RUN_IN_FLIGHT", err.Error())
	case errors.Is(err, instructor.ErrSuperseded):
		writeError(w, r, http.StatusConflict, "SUPERSEDED", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, r, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrRuntimeUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "RUNTIME_UNAVAILABLE", err.Error())
	case errors.Is(err, domain.ErrUpstreamQuota):
		writeError(w, r, http.StatusTooManyRequests, "UPSTREAM_QUOTA", err.Error())
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
	case errors.Is(err, domain.ErrConfiguration):
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	default:
		slog.Error("unexpected handler error", "error", err, "path", r.URL.Path)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
	}
}
