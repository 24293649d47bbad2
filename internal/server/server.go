// Package server provides the HTTP server setup and wiring.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	addressesDomain "github.com/tokendesk/contractsinfo/internal/addresses/domain"
	addressesTransport "github.com/tokendesk/contractsinfo/internal/addresses/transport"
	"github.com/tokendesk/contractsinfo/internal/auth"
	"github.com/tokendesk/contractsinfo/internal/blockscout"
	"github.com/tokendesk/contractsinfo/internal/config"
	"github.com/tokendesk/contractsinfo/internal/middleware/logging"
	"github.com/tokendesk/contractsinfo/internal/middleware/ratelimit"
	"github.com/tokendesk/contractsinfo/internal/observability/metrics"
	"github.com/tokendesk/contractsinfo/internal/ownership"
	"github.com/tokendesk/contractsinfo/internal/storage"
	tokeninfoDomain "github.com/tokendesk/contractsinfo/internal/tokeninfo/domain"
	tokeninfoTransport "github.com/tokendesk/contractsinfo/internal/tokeninfo/transport"
)

// Server is the HTTP server
type Server struct {
	cfg      *config.Config
	store    storage.Store
	explorer *blockscout.Client
	logger   *slog.Logger
	router   *chi.Mux

	// Services typed via transport interfaces
	addressesSvc addressesTransport.Service
	tokeninfoSvc tokeninfoTransport.Service
}

// New creates a new server
func New(cfg *config.Config, store storage.Store, explorer *blockscout.Client, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		explorer: explorer,
		logger:   logger,
		router:   chi.NewRouter(),
	}

	// Create domain services
	resolver := ownership.NewResolver(explorer)
	validator := ownership.NewValidator(resolver, logger)

	s.addressesSvc = addressesDomain.NewService(
		store, resolver, validator, explorer, cfg.Addresses.MaxVerifiedAddresses, logger)
	s.tokeninfoSvc = tokeninfoDomain.NewService(store, explorer, logger)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// MetricsHandler returns the Prometheus scrape handler
func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}

func (s *Server) setupMiddleware() {
	// 1. Body size limit
	s.router.Use(MaxBodySize(1 << 20))

	// 2. Rate limiting (bypasses health checks)
	s.router.Use(ratelimit.Middleware(ratelimit.Config{
		Enabled:           s.cfg.RateLimit.Enabled,
		RequestsPerMin:    s.cfg.RateLimit.RequestsPerMin,
		BurstSize:         s.cfg.RateLimit.BurstSize,
		CleanupMinutes:    s.cfg.RateLimit.CleanupMinutes,
		TrustProxyHeaders: s.cfg.RateLimit.TrustProxyHeaders,
	}))

	// 3. Standard middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// 4. CORS
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-API-Key")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}

func (s *Server) setupRoutes() {
	// Health checks
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleHealth)

	// Metrics scrape endpoint; serves 404 when metrics are disabled
	s.router.Handle("/metrics", s.MetricsHandler())

	// Create HTTP handlers for each domain
	addressesHandler := addressesTransport.NewHandler(s.addressesSvc)
	tokeninfoHandler := tokeninfoTransport.NewHandler(s.tokeninfoSvc)

	// Auth middleware: explorer sessions for user endpoints, store-backed API
	// keys for service endpoints
	session := auth.SessionMiddleware(s.explorer, writeError)
	apiKey := auth.APIKeyMiddleware(s.store, writeError)

	// API v1 routes, all scoped to a chain
	s.router.Route("/api/v1/chains/{chainId}", func(r chi.Router) {
		addressesHandler.RegisterRoutes(r, session, apiKey)
		tokeninfoHandler.RegisterRoutes(r, session, apiKey)
	})
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
