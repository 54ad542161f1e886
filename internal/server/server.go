// Package server exposes the generate and fandom autocomplete endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/config"
	"github.com/pders01/ficroll/internal/debuglog"
	"github.com/pders01/ficroll/internal/metrics"
	"github.com/pders01/ficroll/internal/search"
	"github.com/pders01/ficroll/internal/storage"
)

// Generator picks a work for a filter set.
type Generator interface {
	Generate(ctx context.Context, c api.Criteria) (*api.Work, error)
}

// Upstream answers fandom autocomplete from AO3.
type Upstream interface {
	FandomSuggestions(ctx context.Context, term string) ([]api.Suggestion, error)
}

// FandomRecorder persists fandoms seen upstream.
type FandomRecorder interface {
	SaveFandoms(fandoms []storage.Fandom) error
}

// Deps are the collaborators behind the handlers. Suggester, Recorder and
// Metrics may be nil.
type Deps struct {
	Generator Generator
	Upstream  Upstream
	Suggester search.Suggester
	Recorder  FandomRecorder
	Metrics   *metrics.Metrics
}

type Server struct {
	cfg        config.ServerConfig
	deps       Deps
	limiter    *clientLimiter
	router     chi.Router
	httpServer *http.Server
}

func New(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		limiter: newClientLimiter(cfg.GeneratePerMin, cfg.GenerateBurst),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout()))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.With(s.rateLimit("generate")).Post(api.GeneratePath, s.handleGenerate)
	r.Get(api.AutocompletePath, s.handleAutocomplete)

	return r
}

const defaultRequestTimeout = 90 * time.Second

// requestTimeout bounds one request; the write timeout sits just above it.
func (s *Server) requestTimeout() time.Duration {
	if s.cfg.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return s.cfg.RequestTimeout
}

// Router returns the configured handler, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.requestTimeout() + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	debuglog.Infof("ficroll server listening on %s", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) rateLimit(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.limiter.allow(clientKey(r)) {
				s.deps.Metrics.RateLimited.WithLabelValues(route).Inc()
				writeError(w, http.StatusTooManyRequests, MsgRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
