package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/webscout/internal/agent/core"
	"github.com/mohammad-safakhou/webscout/internal/agent/telemetry"
	"github.com/mohammad-safakhou/webscout/internal/cache/store"
	"github.com/mohammad-safakhou/webscout/internal/capability"
)

// Agent is the orchestrator surface the HTTP layer consumes. Satisfied by
// core.Orchestrator.
type Agent interface {
	Process(ctx context.Context, query string) (*core.Result, error)
	ProcessDirectURL(ctx context.Context, url, query string) (*core.Result, error)
}

// Server exposes the agent over HTTP: query submission, cache inspection and
// metrics.
type Server struct {
	echo      *echo.Echo
	logger    *log.Logger
	agent     Agent
	cache     store.Store
	registry  *capability.Registry
	telemetry *telemetry.Telemetry
}

// New wires the HTTP surface around an already-built agent.
func New(agent Agent, cacheStore store.Store, registry *capability.Registry, tel *telemetry.Telemetry) *Server {
	s := &Server{
		logger:    log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
		agent:     agent,
		cache:     cacheStore,
		registry:  registry,
		telemetry: tel,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/query", s.handleQuery)
	api.POST("/direct", s.handleDirect)
	api.GET("/capabilities", s.handleCapabilities)
	api.GET("/cache/stats", s.handleCacheStats)
	api.DELETE("/cache", s.handleCacheClear)
	api.GET("/telemetry/report", s.handleTelemetryReport)

	s.echo = e
	return s
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type queryRequest struct {
	Query string `json:"query"`
	URL   string `json:"url,omitempty"`
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	result, err := s.agent.Process(c.Request().Context(), req.Query)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleDirect(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url and query are required")
	}

	result, err := s.agent.ProcessDirectURL(c.Request().Context(), req.URL, req.Query)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleCapabilities(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sites": s.registry.SupportedSites(),
		"cards": s.registry.Cards(),
	})
}

func (s *Server) handleCacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.cache.Stats())
}

func (s *Server) handleCacheClear(c echo.Context) error {
	if err := s.cache.Clear(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleTelemetryReport(c echo.Context) error {
	if s.telemetry == nil {
		return echo.NewHTTPError(http.StatusNotFound, "telemetry disabled")
	}
	return c.String(http.StatusOK, s.telemetry.GetPerformanceReport())
}
