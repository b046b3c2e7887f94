// Package api implements the HTTP API for the batch fetch service.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partscout/partscout/internal/config"
	"github.com/partscout/partscout/internal/logger"
)

// Server wraps the HTTP server around the batch scheduler.
type Server struct {
	cfg  *config.ServerConfig
	log  logger.Interface
	http *http.Server
}

// Params holds the parameters for creating an API server.
type Params struct {
	Config    *config.ServerConfig
	Logger    logger.Interface
	Scheduler BatchScheduler
	Cache     CacheInspector
}

// NewServer creates an API server with its router wired up.
func NewServer(p Params) *Server {
	log := p.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	router := SetupRouter(log, p.Scheduler, p.Cache)
	return &Server{
		cfg: p.Config,
		log: log.WithComponent("api"),
		http: &http.Server{
			Addr:         p.Config.Address,
			Handler:      router,
			ReadTimeout:  p.Config.ReadTimeout,
			WriteTimeout: p.Config.WriteTimeout,
			IdleTimeout:  p.Config.IdleTimeout,
		},
	}
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.log.Info("starting API server", "address", s.cfg.Address)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping API server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// loggingMiddleware logs each request at debug level with latency.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
