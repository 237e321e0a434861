package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dukerupert/homehq/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    apperr.Code    `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError maps structured core errors to HTTP statuses. Callers of the
// API branch on the code, not on the status alone.
func writeError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)

	var status int
	switch code {
	case apperr.CodeValidation, apperr.CodeInvalidPrivateEvent, apperr.CodeInvalidTimeRange:
		status = http.StatusBadRequest
	case apperr.CodeForbidden:
		status = http.StatusForbidden
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}

	body := errorBody{Code: code, Message: "request failed"}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Details = appErr.Details
	}
	writeJSON(w, status, body)
}

func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
