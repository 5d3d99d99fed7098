// Package rest exposes the comparison service over HTTP under
// /api/graph-comparison.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"graphdiff/interfaces/http/rest/handlers"
	"graphdiff/interfaces/http/rest/middleware"
	"graphdiff/pkg/auth"
	"graphdiff/pkg/common"
	"graphdiff/pkg/errors"
	"graphdiff/pkg/observability"
)

// BasePath prefixes every API route
const BasePath = "/api/graph-comparison"

// Options configures the router. Nil collaborators switch their feature off.
type Options struct {
	Limits             handlers.Limits
	AllowedOrigins     []string
	RateLimitPerMinute int
	Debug              bool

	// Collector enables request metrics and GET /metrics
	Collector *observability.Collector
	Tracer    *observability.Tracer
	// Validator enables bearer-token auth on API routes
	Validator *auth.JWTValidator
	// Ready reports whether dependencies can serve traffic
	Ready func(ctx context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	service handlers.ComparisonService
	opts    Options
	logger  *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(service handlers.ComparisonService, opts Options, logger *zap.Logger) *Router {
	return &Router{
		service: service,
		opts:    opts,
		logger:  logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()
	errorHandler := errors.NewErrorHandler(rt.logger, rt.opts.Debug)

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.opts.Collector != nil {
		router.Use(rt.opts.Collector.Middleware)
	}
	router.Use(rt.opts.Tracer.Middleware)

	origins := rt.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.Collector != nil {
		router.Handle("/metrics", rt.opts.Collector.Handler())
	}

	comparisons := handlers.NewComparisonHandler(rt.service, errorHandler, rt.opts.Limits, rt.logger)

	router.Route(BasePath, func(r chi.Router) {
		if rt.opts.RateLimitPerMinute > 0 {
			r.Use(middleware.RateLimitByIP(auth.NewIPRateLimiter(rt.opts.RateLimitPerMinute), errorHandler))
		}
		if rt.opts.Validator != nil {
			userLimiter := auth.NewUserRateLimiter(rt.opts.RateLimitPerMinute * 2)
			if rt.opts.RateLimitPerMinute <= 0 {
				userLimiter = nil
			}
			r.Use(middleware.Authenticate(rt.opts.Validator, userLimiter, errorHandler, rt.logger))
		}

		r.Post("/compare", comparisons.Compare)
		r.Post("/merge", comparisons.Merge)
		r.Post("/evolution/track", comparisons.TrackEvolution)

		r.Route("/comparisons", func(r chi.Router) {
			r.Get("/", comparisons.ListComparisons)
			r.Get("/{comparisonID}", comparisons.GetComparison)
			r.Delete("/{comparisonID}", comparisons.DeleteComparison)
		})
	})

	router.NotFound(errorHandler.RouteNotFound)
	router.MethodNotAllowed(errorHandler.MethodNotAllowed)

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports 503 while a dependency check fails
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()

		if err := rt.opts.Ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
