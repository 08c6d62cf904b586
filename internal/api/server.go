package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/pesowatch/pkg/config"
	"github.com/wonny/pesowatch/pkg/logger"
)

// Timeouts for plain HTTP traffic. WebSocket connections hijack the
// conn during the upgrade, so these do not cut dashboard streams off.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server owns the HTTP listener lifecycle.
// SSOT: http.Server settings live in this file only.
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	config     *config.Config
}

// New binds the router to the configured port.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		logger: log.WithField("module", "api"),
		config: cfg,
	}
}

// Start serves until Shutdown is called. A graceful shutdown is not
// an error; callers only see real listen failures.
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"port": s.config.Port,
		"env":  s.config.Env,
	}).Info("API server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen on :%s: %w", s.config.Port, err)
	}
	return nil
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("API server shutting down")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("drain connections: %w", err)
	}
	return nil
}
