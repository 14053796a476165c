package v1

import (
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tinoosan/bukubesar/internal/errs"
	"github.com/tinoosan/bukubesar/internal/ledger"
	"github.com/tinoosan/bukubesar/internal/service/account"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// accountFilter reads ?report_type=&general_account_id=&include_deleted= for list endpoints.
func accountFilter(r *http.Request) (storage.AccountFilter, error) {
	q := r.URL.Query()
	var f storage.AccountFilter
	if rt := strings.ToUpper(strings.TrimSpace(q.Get("report_type"))); rt != "" {
		f.ReportType = ledger.ReportType(rt)
		if !f.ReportType.Valid() {
			return f, fmt.Errorf("%w: report_type must be NERACA or LABA_RUGI", errs.ErrInvalid)
		}
	}
	if raw := q.Get("general_account_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, fmt.Errorf("%w: invalid general_account_id", errs.ErrInvalid)
		}
		f.GeneralAccountID = id
	}
	switch strings.ToLower(q.Get("include_deleted")) {
	case "", "0", "false":
	case "1", "true":
		f.IncludeDeleted = true
	default:
		return f, fmt.Errorf("%w: include_deleted must be true or false", errs.ErrInvalid)
	}
	return f, nil
}

// POST /v1/accounts/general
func (s *Server) postGeneralAccount(w http.ResponseWriter, r *http.Request) {
	var req postGeneralAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := s.accounts.CreateGeneral(r.Context(), account.GeneralInput{
		AccountNumber:   req.AccountNumber,
		Name:            req.Name,
		Category:        req.Category,
		ReportType:      req.ReportType,
		TransactionType: req.TransactionType,
	})
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusCreated, toGeneralResponse(a))
}

// GET /v1/accounts/general
func (s *Server) listGeneralAccounts(w http.ResponseWriter, r *http.Request) {
	f, err := accountFilter(r)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	accs, err := s.accounts.ListGeneral(r.Context(), f)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	out := listResponse[generalAccountResponse]{Items: make([]generalAccountResponse, 0, len(accs))}
	for _, a := range accs {
		out.Items = append(out.Items, toGeneralResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

// GET /v1/accounts/general/{number}
func (s *Server) getGeneralAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.accounts.GetGeneral(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, toGeneralResponse(a))
}

// DELETE /v1/accounts/general/{number}
func (s *Server) deleteGeneralAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.DeleteGeneral(r.Context(), chi.URLParam(r, "number")); err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/accounts/detail
func (s *Server) postDetailAccount(w http.ResponseWriter, r *http.Request) {
	var req postDetailAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := s.accounts.CreateDetail(r.Context(), account.DetailInput{
		AccountNumber:        req.AccountNumber,
		GeneralAccountNumber: req.GeneralAccountNumber,
		Name:                 req.Name,
		Category:             req.Category,
		ReportType:           req.ReportType,
		TransactionType:      req.TransactionType,
	})
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusCreated, toDetailResponse(a))
}

// GET /v1/accounts/detail
func (s *Server) listDetailAccounts(w http.ResponseWriter, r *http.Request) {
	f, err := accountFilter(r)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	accs, err := s.accounts.ListDetail(r.Context(), f)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	out := listResponse[detailAccountResponse]{Items: make([]detailAccountResponse, 0, len(accs))}
	for _, a := range accs {
		out.Items = append(out.Items, toDetailResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

// GET /v1/accounts/detail/{number}
func (s *Server) getDetailAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.accounts.GetDetail(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, toDetailResponse(a))
}

// DELETE /v1/accounts/detail/{number}
func (s *Server) deleteDetailAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.DeleteDetail(r.Context(), chi.URLParam(r, "number")); err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
