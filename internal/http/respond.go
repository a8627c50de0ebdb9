package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tontine/internal/core"
	applog "tontine/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeDomainError maps domain sentinel errors to HTTP statuses: validation
// failures are 422, state conflicts 409, missing records 404, anything else
// 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDuration),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidID),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrInvalidPhone),
		errors.Is(err, core.ErrTooFewParticipants),
		errors.Is(err, core.ErrNotParticipant):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrDuplicateEmail),
		errors.Is(err, core.ErrActiveCycleExists),
		errors.Is(err, core.ErrCycleFinished),
		errors.Is(err, core.ErrDuplicateContribution):
		status = http.StatusConflict
	case errors.Is(err, core.ErrMemberNotFound),
		errors.Is(err, core.ErrCycleNotFound),
		errors.Is(err, core.ErrNoActiveCycle):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.httpLog.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, r.URL.Path)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
