// Package api assembles the HTTP surface of the pizza ordering backend.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/prasnshabrainerhub/pizza-ordering-system/internal/api/v1"
)

// ServerOption configures the API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares []func(http.Handler) http.Handler
	wsHandler   http.Handler
	ready       v1.ReadinessChecker
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithWebsocketHandler mounts the realtime order tracking endpoint.
func WithWebsocketHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.wsHandler = h
	}
}

// WithReadinessChecker wires the readiness probe to the backing store.
func WithReadinessChecker(ready v1.ReadinessChecker) ServerOption {
	return func(cfg *serverConfig) {
		cfg.ready = ready
	}
}

// NewServer creates and configures the HTTP router with the given dependencies
func NewServer(deps v1.Deps, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	// Health check routes live at root, outside the versioned API.
	r.Mount("/", v1.HealthRouter(cfg.ready))

	r.Mount("/api/v1", v1.Router(deps))

	if cfg.wsHandler != nil {
		r.Handle("/ws/orders", cfg.wsHandler)
	}

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
