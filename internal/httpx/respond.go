package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"shopadmin/internal/apperr"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the error taxonomy onto distinct status codes. Domain
// errors pass their message through; anything unclassified is logged
// and hidden behind a 500.
func writeErr(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	code, ok := statusByKind[kind]
	if !ok || kind == apperr.Internal {
		slog.Error("request failed", "error", err)
	}
	if !ok {
		code = http.StatusInternalServerError
	}
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": msg, "kind": kind.String()})
}

var statusByKind = map[apperr.Kind]int{
	apperr.NotFound:          http.StatusNotFound,
	apperr.InvalidState:      http.StatusBadRequest,
	apperr.InsufficientStock: http.StatusUnprocessableEntity,
	apperr.Forbidden:         http.StatusForbidden,
	apperr.Unauthorized:      http.StatusUnauthorized,
	apperr.Conflict:          http.StatusConflict,
	apperr.Internal:          http.StatusInternalServerError,
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErr(w, apperr.New(apperr.InvalidState, msg))
}
