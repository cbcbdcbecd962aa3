// Package admin provides a read-only HTTP introspection surface (health,
// counters, live connections) for a running msgbox engine, built on gin
// with Swagger-documented endpoints.
package admin

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/msgbox/internal/admin/handlers"
	"github.com/jroosing/msgbox/internal/admin/middleware"
	"github.com/jroosing/msgbox/internal/config"
	"github.com/jroosing/msgbox/internal/engine"
)

// Server wraps a gin.Engine and http.Server bound to a msgbox engine's
// introspection endpoints.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	engine     *gin.Engine
	httpServer *http.Server
}

// New builds an introspection Server for eng, ready to ListenAndServe.
func New(eng *engine.Engine, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(eng, cfg, logger)
	RegisterRoutes(r, h, cfg)

	addr := net.JoinHostPort(cfg.Admin.Host, strconv.Itoa(cfg.Admin.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		cfg:        cfg,
		logger:     logger,
		engine:     r,
		httpServer: httpServer,
	}
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Engine returns the underlying gin.Engine, mainly for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("admin server listening", "addr", s.Addr())
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
