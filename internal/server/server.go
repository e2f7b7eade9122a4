// Package server provides the HTTP server setup and wiring.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/surefi/surefi-gateway/internal/config"
	"github.com/surefi/surefi-gateway/internal/middleware/logging"
	"github.com/surefi/surefi-gateway/internal/middleware/ratelimit"
	"github.com/surefi/surefi-gateway/internal/middleware/realip"
	"github.com/surefi/surefi-gateway/internal/middleware/security"
	"github.com/surefi/surefi-gateway/internal/observability/metrics"
	"github.com/surefi/surefi-gateway/internal/query/domain"
	"github.com/surefi/surefi-gateway/internal/query/transport"
)

// Greeting is the body served at the root path.
const Greeting = "Hello from SureFi app!"

// readyTimeout bounds the chain ping behind /readyz.
const readyTimeout = 5 * time.Second

// Pinger reports whether the chain node is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	router *chi.Mux
	pinger Pinger

	querySvc transport.Service
}

// New creates a new server reading from the given contract.
func New(cfg *config.Config, reader domain.ContractReader, pinger Pinger, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		router: chi.NewRouter(),
		pinger: pinger,
	}

	// Wrap query service with logging middleware
	s.querySvc = domain.LoggingMiddleware(logger)(domain.NewService(reader))

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// MetricsHandler returns the metrics HTTP handler for separate metrics server
func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}

func (s *Server) setupMiddleware() {
	// Order matters! Security middleware runs first to block malicious requests early.

	// 1. Real IP extraction (must be first to set client IP for other middleware)
	s.router.Use(realip.Middleware(realip.Config{
		TrustProxy:     s.cfg.Proxy.TrustProxy,
		TrustedProxies: s.cfg.Proxy.TrustedProxies,
	}))

	// 2. Security filter (blocks scanner probes, bypasses health checks).
	// Address values reach the query handlers untouched so they report
	// malformed input themselves.
	securityCfg := security.Config{
		FilterEnabled:     s.cfg.Security.FilterEnabled,
		MaxQueryBytes:     s.cfg.Security.MaxQueryBytes,
		PassthroughParams: []string{transport.AddressParam},
	}
	s.router.Use(security.FilterMiddleware(securityCfg))

	// 3. Query string size limit
	s.router.Use(security.MaxQueryBytesMiddleware(securityCfg))

	// 4. Rate limiting (bypasses health checks)
	s.router.Use(ratelimit.Middleware(ratelimit.Config{
		Enabled:        s.cfg.RateLimit.Enabled,
		RequestsPerMin: s.cfg.RateLimit.RequestsPerMin,
		BurstSize:      s.cfg.RateLimit.BurstSize,
		CleanupMinutes: s.cfg.RateLimit.CleanupMinutes,
	}))

	// 5. Standard middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// 6. CORS, read-only API
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}

func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.router.Get("/", s.handleIndex)

	// Health checks
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)

	// Contract queries
	queryHandler := transport.NewHandler(s.querySvc, transport.WithStrictStatus(s.cfg.API.StrictStatus))
	queryHandler.RegisterRoutes(s.router)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(Greeting))
}

// Liveness handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready only while the chain node answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := s.pinger.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
