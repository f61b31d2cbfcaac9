package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/conductord/internal/engine"
	"github.com/fyrsmithlabs/conductord/internal/learning"
	"github.com/fyrsmithlabs/conductord/internal/trace"
)

// Config holds HTTP server settings.
type Config struct {
	Host string
	Port int

	// AnalyzeAfterRun feeds every finished trace to the learning
	// service as part of intent handling.
	AnalyzeAfterRun bool
}

// Server provides the HTTP endpoints.
type Server struct {
	echo     *echo.Echo
	engine   *engine.Engine
	traces   *trace.Store
	learning *learning.Service
	logger   *zap.Logger
	config   Config
}

// NewServer creates the HTTP server. Engine and trace store are required;
// learning may be nil, which disables the analyze routes' side effects.
func NewServer(eng *engine.Engine, traces *trace.Store, learn *learning.Service, logger *zap.Logger, cfg Config) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if traces == nil {
		return nil, fmt.Errorf("trace store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8710
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:     e,
		engine:   eng,
		traces:   traces,
		learning: learn,
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/intents", s.handleIntent)
	v1.GET("/traces", s.handleTraces)
	v1.GET("/traces/:id", s.handleTrace)
	v1.POST("/traces/:id/analyze", s.handleAnalyze)
	v1.GET("/patterns", s.handlePatterns)
	v1.GET("/proposals", s.handleProposals)
}

// Start begins serving and blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("http server starting", zap.String("addr", addr))
	err := s.echo.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
