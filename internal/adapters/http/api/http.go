// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/simcat/internal/adapters/repository"
	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/scoring"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	VersionProvider
	StatsProvider

	// SearchCatalog ranks one snapshot for a selection refined from its
	// defaults. An empty policy selects the default.
	SearchCatalog(ctx context.Context, policy string, refine func(model.Criteria) model.Criteria) (model.Ranked, error)

	// Catalog and Simulation expose the current snapshot.
	Catalog(ctx context.Context) (model.Catalog, error)
	Simulation(ctx context.Context, id string) (model.Simulation, error)
}

// Server wires HTTP routes for the catalog API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	catalogHandler     *CatalogHandler
	simulationsHandler *SimulationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{maxLimit: 1000}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(deps),
		catalogHandler:     NewCatalogHandler(deps),
		simulationsHandler: NewSimulationsHandler(deps, o.maxLimit),
	}
}

// Option applies a configuration option to the Server.
type Option func(*options)

type options struct {
	maxLimit int
}

// WithMaxLimit caps GET /api/simulations?limit.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// Router returns a chi router with the standard middleware stack and every
// API route registered.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	s.Register(ctx, r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Handle("/metrics", HandleMetrics())
	r.Get("/api/all", MetricsMiddleware(s.catalogHandler.HandleGetAll, "all"))
	r.Get("/api/simulations", MetricsMiddleware(s.simulationsHandler.HandleSearch, "simulations"))
	r.Get("/api/simulations/{id}", MetricsMiddleware(s.simulationsHandler.HandleGetSimulation, "simulation"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a handler error onto a status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, scoring.ErrUnknownPolicy):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrUnavailable), errors.Is(err, repository.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "catalog_unavailable", err)
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		w.WriteHeader(499)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
