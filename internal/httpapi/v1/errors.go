package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/bukubesar/internal/errs"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func toJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

// statusFor maps the errs taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrAccountNotFound), errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrImmutable), errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrTransient):
		return http.StatusServiceUnavailable
	case errors.Is(err, errs.ErrAlreadyPosted),
		errors.Is(err, errs.ErrNothingToPost),
		errors.Is(err, errs.ErrNothingToUnpost),
		errors.Is(err, errs.ErrBalanceAlreadyPosted),
		errors.Is(err, errs.ErrPeriodClosed),
		errors.Is(err, errs.ErrNegativeBalance),
		errors.Is(err, errs.ErrInvalidAmount),
		errors.Is(err, errs.ErrInvalidDate),
		errors.Is(err, errs.ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeServiceErr renders a service error. Unclassified errors are logged and
// reported without detail.
func writeServiceErr(w http.ResponseWriter, r *http.Request, l *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		l.Error("request failed", "req_id", chimw.GetReqID(r.Context()), "err", err)
		writeErr(w, status, "internal error", errs.Code(err))
		return
	}
	writeErr(w, status, err.Error(), errs.Code(err))
}
