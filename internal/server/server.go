// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/itemhub/itemhub/internal/config"
	"github.com/itemhub/itemhub/internal/handlers"
	"github.com/itemhub/itemhub/internal/metrics"
	"github.com/itemhub/itemhub/internal/middleware"
	"github.com/itemhub/itemhub/internal/ratelimit"
	"github.com/itemhub/itemhub/internal/repository"
	"github.com/itemhub/itemhub/pkg/logger"
)

// Server represents the HTTP server.
type Server struct {
	cfg           *config.Config
	log           *logger.Logger
	httpServer    *http.Server
	rootHandler   *handlers.RootHandler
	healthHandler *handlers.HealthHandler
	itemHandler   *handlers.ItemHandler
	authHandler   *handlers.AuthHandler
	docsHandler   *handlers.DocsHandler
	itemRepo      repository.ItemRepository
	rateLimiter   ratelimit.Limiter
	tokenVerifier middleware.TokenVerifier
	listener      net.Listener
	running       bool
	mu            sync.RWMutex
}

// New creates a new Server instance.
func New(cfg *config.Config, log *logger.Logger) *Server {
	s := &Server{
		cfg:           cfg,
		log:           log,
		rootHandler:   handlers.NewRootHandler(),
		healthHandler: handlers.NewHealthHandler(),
		docsHandler:   handlers.NewDocsHandler(""),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := s.buildMiddlewareChain(mux)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// buildMiddlewareChain creates the middleware chain for the server.
func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	chain := middleware.New(
		middleware.Metrics(),
		middleware.RequestID(),
		middleware.ClientIP(s.cfg.Rate.TrustProxy, nil),
	)

	if s.cfg.Rate.Enabled {
		s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.Config{
			Requests: s.cfg.Rate.Requests,
			Window:   s.cfg.Rate.Window,
		})

		chain = chain.Append(middleware.RateLimit(s.rateLimiter, middleware.RateLimitConfig{
			TrustProxy:   s.cfg.Rate.TrustProxy,
			APIKeyHeader: s.cfg.Rate.APIKeyHeader,
		}))

		s.log.Info("rate limiting enabled",
			"requests", s.cfg.Rate.Requests,
			"window", s.cfg.Rate.Window.String(),
		)
	}

	return chain.Then(handler)
}

// registerRoutes sets up the HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Root greeting, exact match only
	mux.HandleFunc("GET /{$}", s.rootHandler.Root)

	// Health check routes (GET only)
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)

	// Metrics endpoint for Prometheus
	mux.Handle("GET /metrics", metrics.Handler())

	// API documentation
	mux.HandleFunc("GET /docs", s.docsHandler.UI)
	mux.HandleFunc("GET /openapi.yaml", s.docsHandler.OpenAPISpec)

	// Item routes. Creation accepts anonymous requests, so auth is optional.
	mux.HandleFunc("POST /items/{$}", s.handleCreateItem)
	mux.HandleFunc("GET /items/{$}", s.handleListItems)
	mux.HandleFunc("GET /items/{id}", s.handleGetItem)
	mux.HandleFunc("PUT /items/{id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /items/{id}", s.handleDeleteItem)
	mux.HandleFunc("GET /items/{id}/stats", s.handleItemStats)

	// Auth routes
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/me", s.handleMe)
}

// optionalAuth wraps a handler with token extraction when a verifier is
// configured. Without one, requests pass through unauthenticated.
func (s *Server) optionalAuth(next http.HandlerFunc) http.Handler {
	s.mu.RLock()
	verifier := s.tokenVerifier
	s.mu.RUnlock()

	if verifier == nil {
		return next
	}
	return middleware.OptionalAuth(verifier)(next)
}

// requireAuth wraps a handler with mandatory token verification.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	s.mu.RLock()
	verifier := s.tokenVerifier
	s.mu.RUnlock()

	if verifier == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "auth service not configured", http.StatusServiceUnavailable)
		})
	}
	return middleware.RequireAuth(verifier)(next)
}

// handleCreateItem routes to the item handler for creation.
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	if s.itemHandler == nil {
		http.Error(w, "item service not configured", http.StatusServiceUnavailable)
		return
	}
	s.optionalAuth(s.itemHandler.Create).ServeHTTP(w, r)
}

// handleListItems routes to the item handler for listing.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	if s.itemHandler == nil {
		http.Error(w, "item service not configured", http.StatusServiceUnavailable)
		return
	}
	s.itemHandler.List(w, r)
}

// handleGetItem routes to the item handler for a single item.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	if s.itemHandler == nil {
		http.Error(w, "item service not configured", http.StatusServiceUnavailable)
		return
	}
	s.itemHandler.Get(w, r)
}

// handleUpdateItem routes to the item handler for updates.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	if s.itemHandler == nil {
		http.Error(w, "item service not configured", http.StatusServiceUnavailable)
		return
	}
	s.optionalAuth(s.itemHandler.Update).ServeHTTP(w, r)
}

// handleDeleteItem routes to the item handler for deletion.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if s.itemHandler == nil {
		http.Error(w, "item service not configured", http.StatusServiceUnavailable)
		return
	}
	s.optionalAuth(s.itemHandler.Delete).ServeHTTP(w, r)
}

// handleItemStats routes to the item handler for view statistics.
func (s *Server) handleItemStats(w http.ResponseWriter, r *http.Request) {
	if s.itemHandler == nil {
		http.Error(w, "item service not configured", http.StatusServiceUnavailable)
		return
	}
	s.itemHandler.Stats(w, r)
}

// handleRegister routes to the auth handler for registration.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.authHandler == nil {
		http.Error(w, "auth service not configured", http.StatusServiceUnavailable)
		return
	}
	s.authHandler.Register(w, r)
}

// handleLogin routes to the auth handler for login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.authHandler == nil {
		http.Error(w, "auth service not configured", http.StatusServiceUnavailable)
		return
	}
	s.authHandler.Login(w, r)
}

// handleMe routes to the auth handler for the current user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if s.authHandler == nil {
		http.Error(w, "auth service not configured", http.StatusServiceUnavailable)
		return
	}
	s.requireAuth(s.authHandler.Me).ServeHTTP(w, r)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.cfg.Server.Address()

	// Create listener first to get the actual address (important when port is 0)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	actualAddr := listener.Addr().String()
	s.log.Info("server starting", "address", actualAddr)

	err = s.httpServer.Serve(listener)
	if err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")

	// Mark as not ready during shutdown
	s.healthHandler.SetReady(false)

	err := s.httpServer.Shutdown(ctx)

	if s.rateLimiter != nil {
		if closeErr := s.rateLimiter.Close(); closeErr != nil {
			s.log.Error("failed to close rate limiter", "error", closeErr.Error())
		}
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil {
		s.log.Error("shutdown error", "error", err.Error())
		return err
	}

	s.log.Info("server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// HealthHandler returns the health handler.
func (s *Server) HealthHandler() *handlers.HealthHandler {
	return s.healthHandler
}

// SetItemRepository sets the item repository for the server.
func (s *Server) SetItemRepository(repo repository.ItemRepository) {
	s.itemRepo = repo
}

// ItemRepository returns the item repository.
func (s *Server) ItemRepository() repository.ItemRepository {
	return s.itemRepo
}

// SetItemHandler sets the item handler for the server.
func (s *Server) SetItemHandler(h *handlers.ItemHandler) {
	s.itemHandler = h
}

// ItemHandler returns the item handler.
func (s *Server) ItemHandler() *handlers.ItemHandler {
	return s.itemHandler
}

// SetAuthHandler sets the auth handler for the server.
func (s *Server) SetAuthHandler(h *handlers.AuthHandler) {
	s.authHandler = h
}

// AuthHandler returns the auth handler.
func (s *Server) AuthHandler() *handlers.AuthHandler {
	return s.authHandler
}

// SetTokenVerifier sets the token verifier used by the auth middleware.
func (s *Server) SetTokenVerifier(v middleware.TokenVerifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenVerifier = v
}
