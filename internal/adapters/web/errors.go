package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"order-management/internal/core"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeJSONStatus(w, status, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeValidationError writes a 422 with the offending field names mapped to the failed rule.
func writeValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	writeJSONStatus(w, http.StatusUnprocessableEntity, errorResponse{
		Error:     "validation failed",
		Code:      "VALIDATION_FAILED",
		Fields:    fields,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeServiceError maps a domain error onto an HTTP status. Unrecognised errors are
// logged and reported as a generic 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInsufficientConfiguration):
		writeError(w, r, err.Error(), "INSUFFICIENT_CONFIGURATION", http.StatusConflict)
	case errors.Is(err, core.ErrNoInventory):
		writeError(w, r, err.Error(), "NO_INVENTORY", http.StatusConflict)
	case errors.Is(err, core.ErrAlreadyReceived):
		writeError(w, r, err.Error(), "ALREADY_RECEIVED", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, err.Error(), "INVALID_TRANSITION", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidQuantity):
		writeError(w, r, err.Error(), "INVALID_QUANTITY", http.StatusUnprocessableEntity)
	default:
		h.log.Error().
			Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("unhandled service error")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
