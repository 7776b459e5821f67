// Package monitoring exposes the transfer processor's dead-letter
// statistics over HTTP. It is an operator surface, separate from the
// public API gateway.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/banking-transfer-saga/internal/config"
	"github.com/banking-transfer-saga/internal/transfer_processor/errorhandling"
)

// Health states reported by the dead-letter health endpoint
const (
	StatusHealthy = "HEALTHY"
	StatusWarning = "WARNING"
)

// Server serves the processor's stats and health endpoints
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer wires the stats endpoints. published counts dead-letters this
// instance produced; observed counts what the DLT monitor group has seen
// across all instances.
func NewServer(log *slog.Logger, cfg *config.Config, published, observed *errorhandling.Stats) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	handler := &statsHandler{
		published: published,
		observed:  observed,
		threshold: cfg.DeadLetter.HealthThreshold,
	}

	dlt := router.Group("/api/v1/dlt")
	{
		dlt.GET("/stats", handler.Stats)
		dlt.GET("/health", handler.Health)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start monitoring server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping monitoring server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop monitoring server: %w", err)
	}
	return nil
}
