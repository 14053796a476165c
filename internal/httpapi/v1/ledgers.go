package v1

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/meta"
	"github.com/tinoosan/bukubesar/internal/service/entries"
)

// parseLedgerDate accepts a calendar date or a full RFC 3339 timestamp.
func (s *Server) parseLedgerDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw)); err == nil {
		return t, nil
	}
	return ledger.ParseDate(raw, dateISO, s.loc)
}

func (s *Server) toEntryInput(req ledgerRequest) (entries.Input, error) {
	amt, err := amount.Parse(req.Amount)
	if err != nil {
		return entries.Input{}, err
	}
	date, err := s.parseLedgerDate(req.LedgerDate)
	if err != nil {
		return entries.Input{}, err
	}
	return entries.Input{
		ReferenceNumber:     req.ReferenceNumber,
		Amount:              amt,
		Description:         req.Description,
		LedgerType:          req.LedgerType,
		TransactionType:     ledger.TransactionType(strings.ToUpper(string(req.TransactionType))),
		LedgerDate:          date,
		DetailAccountNumber: req.DetailAccountNumber,
		Metadata:            meta.New(req.Metadata),
	}, nil
}

func ledgerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid ledger id", errs.ErrInvalid)
	}
	return id, nil
}

// POST /v1/ledgers
func (s *Server) postLedger(w http.ResponseWriter, r *http.Request) {
	var req ledgerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := s.toEntryInput(req)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	l, err := s.entries.Create(r.Context(), in, actorFrom(r.Context()))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusCreated, toLedgerResponse(l))
}

// GET /v1/ledgers?from=YYYY-MM-DD&to=YYYY-MM-DD&status=
func (s *Server) listLedgers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f entries.Filter
	for _, p := range []struct {
		key string
		dst *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		t, err := ledger.ParseDate(raw, dateISO, s.loc)
		if err != nil {
			writeServiceErr(w, r, s.log, err)
			return
		}
		*p.dst = t
	}
	f.Status = ledger.Status(strings.ToUpper(q.Get("status")))
	ls, err := s.entries.List(r.Context(), f)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	out := listResponse[ledgerResponse]{Items: make([]ledgerResponse, 0, len(ls))}
	for _, l := range ls {
		out.Items = append(out.Items, toLedgerResponse(l))
	}
	toJSON(w, http.StatusOK, out)
}

// GET /v1/ledgers/{id}
func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	id, err := ledgerID(r)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	l, err := s.entries.Get(r.Context(), id)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, toLedgerResponse(l))
}

// PUT /v1/ledgers/{id}
func (s *Server) putLedger(w http.ResponseWriter, r *http.Request) {
	id, err := ledgerID(r)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	var req ledgerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := s.toEntryInput(req)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	l, err := s.entries.Update(r.Context(), id, in, actorFrom(r.Context()))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, toLedgerResponse(l))
}

// DELETE /v1/ledgers/{id}
func (s *Server) deleteLedger(w http.ResponseWriter, r *http.Request) {
	id, err := ledgerID(r)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	if err := s.entries.Delete(r.Context(), id, actorFrom(r.Context())); err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
