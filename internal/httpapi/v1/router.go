// Package v1 wires the HTTP surface of the bukubesar service.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
	"log/slog"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/bukubesar/internal/config"
	"github.com/tinoosan/bukubesar/internal/service/account"
	"github.com/tinoosan/bukubesar/internal/service/entries"
	"github.com/tinoosan/bukubesar/internal/service/posting"
	"github.com/tinoosan/bukubesar/internal/storage"
)

// Deps are the collaborators the API delegates to.
type Deps struct {
	Posting  posting.Service
	Accounts account.Service
	Entries  entries.Service
	// Ready is consulted by /readyz when set.
	Ready storage.ReadyChecker
	Auth  config.AuthConfig
	// Location parses request dates; defaults to UTC.
	Location *time.Location
}

// Server wires handlers and middleware using Chi.
type Server struct {
	posting  posting.Service
	accounts account.Service
	entries  entries.Service
	ready    storage.ReadyChecker
	auth     config.AuthConfig
	loc      *time.Location
	log      *slog.Logger
	rt       *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by request logging, panic recovery and 5xx reporting.
func New(d Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		posting:  d.Posting,
		accounts: d.Accounts,
		entries:  d.Entries,
		ready:    d.Ready,
		auth:     d.Auth,
		loc:      loc,
		log:      logger,
		rt:       r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Unauthenticated
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
	s.rt.Get("/v1/dictionary/categories", s.getCategoriesDictionary)

	s.rt.Group(func(r chi.Router) {
		r.Use(s.actor())

		// Posting engine
		r.With(s.validateDateBody("date", dateISO)).Post("/v1/posting/ledgers", s.postLedgers)
		r.With(s.validateDateBody("date", dateISO)).Post("/v1/posting/ledgers/unpost", s.unpostLedgers)
		r.With(s.validateDateBody("date", dateDMY)).Post("/v1/posting/balance", s.postBalance)
		r.With(s.validateDateBody("date", dateDMY)).Post("/v1/posting/balance/unpost", s.unpostBalance)
		r.With(s.validateDateBody("date", dateISO)).Post("/v1/posting/neraca-akhir", s.postNeracaAkhir)
		r.Get("/v1/posting/shu", s.calculateSHU)
		r.Post("/v1/posting/shu", s.postSHU)
		r.Post("/v1/posting/shu/close", s.closeSHU)

		// Chart of accounts
		r.Post("/v1/accounts/general", s.postGeneralAccount)
		r.Get("/v1/accounts/general", s.listGeneralAccounts)
		r.Get("/v1/accounts/general/{number}", s.getGeneralAccount)
		r.Delete("/v1/accounts/general/{number}", s.deleteGeneralAccount)
		r.Post("/v1/accounts/detail", s.postDetailAccount)
		r.Get("/v1/accounts/detail", s.listDetailAccounts)
		r.Get("/v1/accounts/detail/{number}", s.getDetailAccount)
		r.Delete("/v1/accounts/detail/{number}", s.deleteDetailAccount)

		// Ledger rows
		r.Post("/v1/ledgers", s.postLedger)
		r.Get("/v1/ledgers", s.listLedgers)
		r.Get("/v1/ledgers/{id}", s.getLedger)
		r.Put("/v1/ledgers/{id}", s.putLedger)
		r.Delete("/v1/ledgers/{id}", s.deleteLedger)
	})
}
