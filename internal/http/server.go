// Package http provides the HTTP API for commtrace.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/commtrace/internal/logging"
	"github.com/fyrsmithlabs/commtrace/internal/orchestrator"
	"github.com/fyrsmithlabs/commtrace/internal/records"
)

// Config holds HTTP server configuration.
type Config struct {
	Host      string
	Port      int
	RateLimit float64 // requests per second, 0 disables limiting
	RateBurst int
	MaxBodyMB int64   // request body cap in megabytes, 0 for no cap
}

// Server provides HTTP endpoints for commtrace.
type Server struct {
	echo   *echo.Echo
	runner *orchestrator.Orchestrator
	logger *logging.Logger
	config *Config
}

// NewServer creates the HTTP server around an orchestrator.
func NewServer(runner *orchestrator.Orchestrator, logger *logging.Logger, cfg *Config) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("orchestrator cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 9090}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.MaxBodyMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxBodyMB)))
	}
	if cfg.RateLimit > 0 {
		e.Use(RateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	s := &Server{
		echo:   e,
		runner: runner,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/analyze", s.handleAnalyze)
}

// RecordPayload is one communication event in an analysis request.
type RecordPayload struct {
	Timestamp    string `json:"timestamp"`
	Counterparty string `json:"counterparty"`
	Direction    string `json:"direction"`
}

// AnalyzeRequest is the request body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Records []RecordPayload `json:"records"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleAnalyze runs the full detection pipeline over the posted records.
// Malformed records are a request error; an empty dataset is a valid
// request whose report carries the engine's error field.
func (s *Server) handleAnalyze(c echo.Context) error {
	ctx := c.Request().Context()

	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid analyze request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	recs := make([]records.Record, 0, len(req.Records))
	for i, p := range req.Records {
		ts, err := records.ParseTimestamp(p.Timestamp)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("record %d: %v", i, err))
		}
		dir, err := records.ParseDirection(p.Direction)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("record %d: %v", i, err))
		}
		recs = append(recs, records.Record{
			Timestamp:    ts,
			Counterparty: p.Counterparty,
			Direction:    dir,
		})
	}

	report := s.runner.Run(ctx, records.NewTable(recs))
	return c.JSON(http.StatusOK, report)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
