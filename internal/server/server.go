package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/freema/convcom/internal/config"
	"github.com/freema/convcom/internal/message"
	"github.com/freema/convcom/internal/redisclient"
	"github.com/freema/convcom/internal/server/handlers"
	"github.com/freema/convcom/internal/server/middleware"
)

// Deps are the collaborators the HTTP layer needs. Redis is nil when no
// enabled component uses it. Workers is nil when the queue is disabled.
type Deps struct {
	Store   message.Store
	Redis   *redisclient.Client
	Service *message.Service
	Workers handlers.WorkerStats
	DocSpec []byte
	Version string
}

// Server is the HTTP server.
type Server struct {
	httpServer *http.Server
	health     *handlers.HealthHandler
}

// New creates and configures the HTTP server with all routes and middleware.
func New(cfg *config.Config, deps Deps) *Server {
	var redisPinger handlers.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}
	healthHandler := handlers.NewHealthHandler(deps.Store, redisPinger, deps.Version)
	if deps.Workers != nil {
		healthHandler.WithWorkers(deps.Workers)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      otelhttp.NewHandler(Routes(cfg, deps, healthHandler), "convcom"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		health:     healthHandler,
	}
}

// Routes builds the router. It is separate from New so tests can drive it
// through httptest.
func Routes(cfg *config.Config, deps Deps, health *handlers.HealthHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// Unauthenticated endpoints
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	docs := handlers.NewDocsHandler(deps.DocSpec)
	r.Get("/api/docs/openapi.yaml", docs.OpenAPISpec)
	r.Get("/api/docs", docs.SwaggerUI)

	messages := handlers.NewMessageHandler(deps.Service, cfg.Server.MaxMessageSize)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.Server.AuthToken))
		if cfg.RateLimit.Enabled && deps.Redis != nil {
			limiter := middleware.NewRateLimiter(deps.Redis, cfg.RateLimit.RequestsPerMinute, time.Minute)
			r.Use(limiter.Middleware())
		}

		r.Route("/messages", func(r chi.Router) {
			r.Post("/render", messages.Render)
			r.Post("/parse", messages.Parse)
			r.Get("/", messages.List)
			r.Get("/{id}", messages.Get)
		})
	})

	return r
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	slog.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	return s.httpServer.Shutdown(ctx)
}
