package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
)

type ctxKey string

const ctxKeyDate ctxKey = "validatedDate"

// Request date layouts. Balance endpoints take dd-mm-yyyy, the rest ISO dates.
const (
	dateISO = ledger.LayoutISO
	dateDMY = ledger.LayoutDMY
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if !requireJSON(w, r) {
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body required"
		}
		writeErr(w, http.StatusBadRequest, msg, errs.Code(errs.ErrInvalid))
		return false
	}
	return true
}

// validateDateBody parses {"<field>": "<date>"} with layout in the server's location
// and stores the resulting time in the request context for the handler to use.
func (s *Server) validateDateBody(field, layout string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			if !decodeJSON(w, r, &body) {
				return
			}
			raw, ok := body[field]
			if !ok || raw == "" {
				writeServiceErr(w, r, s.log, fmt.Errorf("%w: %s is required", errs.ErrInvalidDate, field))
				return
			}
			if len(body) > 1 {
				writeErr(w, http.StatusBadRequest, "only "+field+" is accepted", errs.Code(errs.ErrInvalid))
				return
			}
			t, err := ledger.ParseDate(raw, layout, s.loc)
			if err != nil {
				writeServiceErr(w, r, s.log, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyDate, t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func dateFrom(ctx context.Context) time.Time {
	t, _ := ctx.Value(ctxKeyDate).(time.Time)
	return t
}
