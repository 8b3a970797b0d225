package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"userinfo-service/internal/api"
	"userinfo-service/internal/config"
	"userinfo-service/internal/store"
	"userinfo-service/internal/telemetry"
)

// Store is the optional shared backend (Redis in production) used for the
// lookup cache and rate limiting.
type Store interface {
	api.Cache
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) bool
}

type Deps struct {
	Users   *store.Table
	Metrics *telemetry.Metrics
	// Store may be nil, which disables caching and rate limiting.
	Store Store
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// New builds the router with all middleware and routes wired together.
func New(cfg *config.Config, deps Deps) http.Handler {
	if deps.Users == nil {
		deps.Users = store.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NewMetrics()
	}

	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(deps.Metrics.Middleware)
	r.Use(requestLogger)
	r.Use(recoverer(cfg.Debug))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{headerRequestID},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, api.MsgNotFound, r.URL.Path, cfg.Debug)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, api.MsgMethodNotAllowed, r.Method, cfg.Debug)
	})

	opts := api.Options{
		Mode:     cfg.ErrorMode,
		Debug:    cfg.Debug,
		CacheTTL: cfg.CacheTTL,
		Clock:    deps.Clock,
		Observer: deps.Metrics,
	}
	if deps.Store != nil {
		opts.Cache = deps.Store
	}
	h := api.NewHandler(deps.Users, opts)

	// Scrapes stay outside the rate limit.
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Group(func(r chi.Router) {
		if deps.Store != nil && cfg.RateLimit > 0 {
			r.Use(rateLimit(deps.Store, cfg.RateLimit, cfg.RateLimitWindow))
		}
		h.Routes(r)
	})

	return r
}
