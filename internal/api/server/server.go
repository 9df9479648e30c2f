package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/api/middleware"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/api/rest"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/ledger"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/logger"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/ratelimit"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/relay"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// OperatorAddress is the administrator identity the authenticated
	// operator routes act as
	OperatorAddress string
	Auth            middleware.AuthConfig
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	ledger     *ledger.Ledger
	relayer    *relay.Relayer
	throttle   ratelimit.Throttle
	httpServer *http.Server
}

// New creates a new API server. throttle may be nil when submission
// throttling is not configured.
func New(cfg Config, l *ledger.Ledger, r *relay.Relayer, t ratelimit.Throttle) *Server {
	return &Server{
		config:   cfg,
		ledger:   l,
		relayer:  r,
		throttle: t,
	}
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	// Create REST handler
	restHandler := rest.NewHandler(s.config.Debug, s.config.OperatorAddress, s.ledger, s.relayer, s.throttle)

	// Setup REST routes
	rest.SetupRoutes(router, restHandler, s.config.Auth)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
