// Package server provides the JSON API HTTP server
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/alchemorsel/ingredients/internal/infrastructure/config"
	"github.com/alchemorsel/ingredients/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/ingredients/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/ingredients/internal/infrastructure/monitoring"
	"github.com/alchemorsel/ingredients/pkg/healthcheck"
)

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server
	router      *chi.Mux
	handlers    *handlers.NormalizeHandlers
	metrics     *monitoring.MetricsCollector
	health      *healthcheck.HealthCheck
	rateLimiter *middleware.RateLimiter
	openAPI     *OpenAPIHandler
}

// NewServer creates a new HTTP server instance. metrics and rateLimiter
// may be nil when disabled.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	h *handlers.NormalizeHandlers,
	metrics *monitoring.MetricsCollector,
	health *healthcheck.HealthCheck,
	rateLimiter *middleware.RateLimiter,
) *Server {
	s := &Server{
		config:      cfg,
		logger:      logger,
		handlers:    h,
		metrics:     metrics,
		health:      health,
		rateLimiter: rateLimiter,
		openAPI:     NewOpenAPIHandler(logger),
	}

	s.router = s.setupRoutes()

	var handler http.Handler = s.router
	if cfg.Server.EnableH2C {
		// HTTP/2 without TLS, for deployments behind a terminating proxy
		handler = h2c.NewHandler(s.router, &http2.Server{IdleTimeout: cfg.Server.IdleTimeout})
	}

	s.server = &http.Server{
		Addr:           cfg.Address(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       zap.NewStdLog(logger.Named("http")),
	}

	return s
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()
	mw := middleware.New(s.config, s.logger)

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.Security)
	r.Use(mw.CORS)
	r.Use(mw.Tracing)
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware)
	}

	// Health and metrics stay outside rate limiting and timeouts
	healthPath := s.config.Monitoring.HealthCheckPath
	r.Method(http.MethodGet, healthPath, s.health.Handler())
	r.Method(http.MethodGet, healthPath+"/live", s.health.LivenessHandler())
	r.Method(http.MethodGet, healthPath+"/ready", s.health.ReadinessHandler())
	if s.metrics != nil && s.config.Monitoring.EnableMetrics {
		r.Method(http.MethodGet, s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.rateLimiter != nil {
			r.Use(s.rateLimiter.Handler)
		}
		if s.config.Server.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
		}
		if s.config.Server.EnableCompression {
			r.Use(newCompressor().Handler)
		}

		r.Get("/openapi.yaml", s.openAPI.ServeOpenAPISpec)
		r.Get("/openapi.json", s.openAPI.ServeOpenAPIJSON)

		s.handlers.Routes(r)
	})

	return r
}

// newCompressor compresses JSON and YAML responses with brotli, gzip or
// deflate depending on Accept-Encoding
func newCompressor() *chimiddleware.Compressor {
	compressor := chimiddleware.NewCompressor(5, "application/json", "application/x-yaml", "text/plain")
	compressor.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return compressor
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server", zap.String("address", ln.Addr().String()))

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Server returns the underlying HTTP server instance
func (s *Server) Server() *http.Server {
	return s.server
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
