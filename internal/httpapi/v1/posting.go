package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tinoosan/bukubesar/internal/amount"
	"github.com/tinoosan/bukubesar/internal/errs"
)

// POST /v1/posting/ledgers {"date":"YYYY-MM-DD"}
func (s *Server) postLedgers(w http.ResponseWriter, r *http.Request) {
	res, err := s.posting.PostLedgers(r.Context(), dateFrom(r.Context()), actorFrom(r.Context()))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, postLedgersResponse{Date: res.Date, Posted: res.Posted, JournalsCreated: res.JournalsCreated, PostedAt: res.PostedAt})
}

// POST /v1/posting/ledgers/unpost {"date":"YYYY-MM-DD"}
func (s *Server) unpostLedgers(w http.ResponseWriter, r *http.Request) {
	res, err := s.posting.UnpostLedgers(r.Context(), dateFrom(r.Context()), actorFrom(r.Context()))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, unpostLedgersResponse{Date: res.Date, Unposted: res.Unposted, JournalsDeleted: res.JournalsDeleted, At: res.At})
}

// POST /v1/posting/balance {"date":"dd-mm-yyyy"}
func (s *Server) postBalance(w http.ResponseWriter, r *http.Request) {
	res, err := s.posting.PostBalance(r.Context(), dateFrom(r.Context()), actorFrom(r.Context()))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, toBalanceResponse(res))
}

// POST /v1/posting/balance/unpost {"date":"dd-mm-yyyy"}
func (s *Server) unpostBalance(w http.ResponseWriter, r *http.Request) {
	res, err := s.posting.UnpostBalance(r.Context(), dateFrom(r.Context()), actorFrom(r.Context()))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, toBalanceResponse(res))
}

// POST /v1/posting/neraca-akhir {"date":"YYYY-MM-DD"}
func (s *Server) postNeracaAkhir(w http.ResponseWriter, r *http.Request) {
	res, err := s.posting.PostNeracaAkhir(r.Context(), dateFrom(r.Context()), actorFrom(r.Context()))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, toNeracaResponse(res))
}

// GET /v1/posting/shu?year=
func (s *Server) calculateSHU(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeServiceErr(w, r, s.log, fmt.Errorf("%w: year must be an integer", errs.ErrInvalid))
		return
	}
	calc, err := s.posting.CalculateNetIncome(r.Context(), year)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, toCalculationResponse(calc))
}

// POST /v1/posting/shu {"year":2024,"amount":"600.00"}
func (s *Server) postSHU(w http.ResponseWriter, r *http.Request) {
	var req postSHURequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amt, err := amount.ParseSigned(req.Amount)
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	rec, err := s.posting.PostNetIncome(r.Context(), req.Year, amt, actorFrom(r.Context()))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, toSHURecord(rec))
}

// POST /v1/posting/shu/close {"year":2024}
func (s *Server) closeSHU(w http.ResponseWriter, r *http.Request) {
	var req closeSHURequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := s.posting.CloseNetIncome(r.Context(), req.Year, actorFrom(r.Context()))
	if err != nil {
		writeServiceErr(w, r, s.log, err)
		return
	}
	toJSON(w, http.StatusOK, toSHURecord(rec))
}
