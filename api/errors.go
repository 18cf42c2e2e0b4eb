package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/garnizeh/shiftstaff/internal/staffing"
)

// httpError is an error raised by the HTTP layer itself, before the engine runs.
type httpError struct {
	status  int
	message string
	details []string
}

func (e *httpError) Error() string { return e.message }

func errBadRequest(msg string, details ...string) error {
	return &httpError{status: http.StatusBadRequest, message: msg, details: details}
}

func errUnauthorized(msg string) error {
	return &httpError{status: http.StatusUnauthorized, message: msg}
}

type errorBody struct {
	Error     string   `json:"error"`
	Field     string   `json:"field,omitempty"`
	Details   []string `json:"details,omitempty"`
	ShiftIDs  []int64  `json:"shift_ids,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

type confirmationBody struct {
	Error        string                         `json:"error"`
	Confirmation *staffing.ConfirmationRequired `json:"confirmation"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeError maps engine and transport errors to status codes. Unknown errors are store
// failures: they are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error(), RequestID: RequestID(r.Context())}
	status := http.StatusInternalServerError

	var (
		he    *httpError
		ve    *staffing.ValidationError
		guard *staffing.GuardError
	)
	switch {
	case errors.As(err, &he):
		status = he.status
		body.Details = he.details
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		body.Field = ve.Field
	case errors.Is(err, staffing.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, staffing.ErrForbidden):
		status = http.StatusForbidden
	case errors.As(err, &guard):
		status = http.StatusConflict
		body.ShiftIDs = guard.ShiftIDs
	case errors.Is(err, staffing.ErrAlreadyCancelled),
		errors.Is(err, staffing.ErrNotActive),
		errors.Is(err, staffing.ErrInvitationClosed):
		status = http.StatusConflict
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", body.RequestID),
			slog.Any("err", err),
		)
		body.Error = "internal error"
	}

	writeJSON(w, body, status)
}

// writeResult writes v, or a 409 confirmation prompt when the engine asked for one.
func writeResult(w http.ResponseWriter, v any, conf *staffing.ConfirmationRequired) {
	if conf != nil {
		writeJSON(w, confirmationBody{Error: "confirmation required", Confirmation: conf}, http.StatusConflict)
		return
	}
	writeJSON(w, v, http.StatusOK)
}
