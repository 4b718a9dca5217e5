// Package httpapi wires the HTTP surface of the finance service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/financehero/ledger/internal/service/account"
	"github.com/financehero/ledger/internal/service/category"
	"github.com/financehero/ledger/internal/service/transaction"
)

// Server wires handlers and middleware using Chi.
// It composes read (repo) and write (writer) dependencies through services.
type Server struct {
	txSvc  transaction.Service
	accSvc account.Service
	catSvc category.Service
	ready  ReadyChecker
	log    *slog.Logger
	rt     *chi.Mux
}

// Deps bundles the store interfaces consumed by the server.
type Deps struct {
	TxRepo    transaction.Repo
	TxWriter  transaction.Writer
	AccRepo   account.Repo
	AccWriter account.Writer
	CatRepo   category.Repo
	CatWriter category.Writer
	Ready     ReadyChecker
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
func New(d Deps, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		txSvc:  transaction.New(d.TxRepo, d.TxWriter),
		accSvc: account.New(d.AccRepo, d.AccWriter),
		catSvc: category.New(d.CatRepo, d.CatWriter),
		ready:  d.Ready,
		rt:     r,
		log:    logger,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	auth := authMiddleware()

	s.rt.Route("/v1", func(r chi.Router) {
		r.Use(auth)
		// Transactions
		r.With(s.validatePostTransaction()).Post("/transactions", s.postTransaction)
		r.With(s.validateListTransactions()).Get("/transactions", s.listTransactions)
		r.Get("/transactions/{id}", s.getTransaction)
		r.With(s.validatePostTransaction()).Put("/transactions/{id}", s.putTransaction)
		r.Delete("/transactions/{id}", s.deleteTransaction)
		// Accounts
		r.With(s.validatePostAccount()).Post("/accounts", s.postAccount)
		r.Get("/accounts", s.listAccounts)
		r.Get("/accounts/{id}", s.getAccount)
		r.Patch("/accounts/{id}", s.patchAccount)
		r.Delete("/accounts/{id}", s.deleteAccount)
		// Categories
		r.With(s.validatePostCategory()).Post("/categories", s.postCategory)
		r.Get("/categories", s.listCategories)
		r.Get("/categories/{id}", s.getCategory)
		r.Patch("/categories/{id}", s.patchCategory)
		r.Delete("/categories/{id}", s.deleteCategory)
	})

	// Health and metrics (unversioned, unauthenticated)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
