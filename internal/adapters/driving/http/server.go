// Package http exposes the transformation engine and insight queries over a
// JSON API.
package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lorekeep/insight-core/internal/core/ports/driven"
	"github.com/lorekeep/insight-core/internal/core/ports/driving"
	"github.com/lorekeep/insight-core/internal/runtime"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	transformService driving.TransformService
	insightService   driving.InsightService
	services         *runtime.Services
	aiFactory        driven.AIServiceFactory

	// Infrastructure
	db    Pinger // insight store health check
	queue Pinger // persist queue health check
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// JWTSecret enables bearer authentication on the API routes when set.
	// Empty disables auth for local single-user deployments.
	JWTSecret string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "127.0.0.1",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	transformService driving.TransformService,
	insightService driving.InsightService,
	services *runtime.Services,
	aiFactory driven.AIServiceFactory,
	db Pinger,
	queue Pinger, // can be nil
) *Server {
	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		transformService: transformService,
		insightService:   insightService,
		services:         services,
		aiFactory:        aiFactory,
		db:               db,
		queue:            queue,
	}

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// No write timeout: transformations block on model generation
		IdleTimeout: 60 * time.Second,
	}

	s.setupRoutes(cfg.JWTSecret)
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(jwtSecret string) {
	auth := NewAuthMiddleware(jwtSecret)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Transformation endpoints
	s.router.Handle("GET /api/v1/kinds",
		auth.Authenticate(http.HandlerFunc(s.handleListKinds)))
	s.router.Handle("POST /api/v1/transform",
		auth.Authenticate(http.HandlerFunc(s.handleTransform)))
	s.router.Handle("POST /api/v1/transform/batch",
		auth.Authenticate(http.HandlerFunc(s.handleTransformBatch)))

	// Insight endpoints
	s.router.Handle("POST /api/v1/query",
		auth.Authenticate(http.HandlerFunc(s.handleQuery)))
	s.router.Handle("GET /api/v1/insights",
		auth.Authenticate(http.HandlerFunc(s.handleListInsights)))
	s.router.Handle("DELETE /api/v1/insights/{id}",
		auth.Authenticate(http.HandlerFunc(s.handleDeleteInsight)))
	s.router.Handle("DELETE /api/v1/insights",
		auth.Authenticate(http.HandlerFunc(s.handleDeleteInsightsByPrefix)))
	s.router.Handle("POST /api/v1/insights/clear",
		auth.Authenticate(http.HandlerFunc(s.handleClearInsights)))

	// Runtime AI configuration endpoints
	s.router.Handle("GET /api/v1/runtime/status",
		auth.Authenticate(http.HandlerFunc(s.handleRuntimeStatus)))
	s.router.Handle("PUT /api/v1/runtime/ai",
		auth.Authenticate(http.HandlerFunc(s.handleReconfigureAI)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
