package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/conductord/internal/intent"
	"github.com/fyrsmithlabs/conductord/internal/learning"
)

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// AnalyzeResponse is the body for POST /api/v1/traces/:id/analyze.
type AnalyzeResponse struct {
	TraceID  string               `json:"trace_id"`
	Approved []*learning.Proposal `json:"approved"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleIntent runs one intent through the engine. Malformed JSON is a
// 400; everything else returns the structured pipeline result, including
// routing failures, so callers can branch on result.status.
func (s *Server) handleIntent(c echo.Context) error {
	var in intent.Intent
	if err := c.Bind(&in); err != nil {
		s.logger.Warn("invalid intent request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result := s.engine.Execute(c.Request().Context(), in)

	if s.learning != nil && s.config.AnalyzeAfterRun {
		if t, ok := s.traces.Get(result.TraceID); ok {
			s.learning.AnalyzeAndPropose(c.Request().Context(), t)
		}
	}

	return c.JSON(http.StatusOK, result)
}

// handleTraces lists traces; ?recent=n limits to the newest n.
func (s *Server) handleTraces(c echo.Context) error {
	if recent := c.QueryParam("recent"); recent != "" {
		n, err := strconv.Atoi(recent)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "recent must be a positive integer")
		}
		return c.JSON(http.StatusOK, s.traces.Recent(n))
	}
	return c.JSON(http.StatusOK, s.traces.All())
}

// handleTrace returns one trace by id.
func (s *Server) handleTrace(c echo.Context) error {
	t, ok := s.traces.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "trace not found")
	}
	return c.JSON(http.StatusOK, t)
}

// handleAnalyze runs an explicit learning pass over one trace. Note that
// repeated calls re-count the trace's failures; there is no idempotence
// guard in the detector.
func (s *Server) handleAnalyze(c echo.Context) error {
	if s.learning == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "learning is not configured")
	}
	t, ok := s.traces.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "trace not found")
	}
	approved := s.learning.AnalyzeAndPropose(c.Request().Context(), t)
	return c.JSON(http.StatusOK, AnalyzeResponse{TraceID: t.TraceID, Approved: approved})
}

// handlePatterns lists the accumulated failure patterns.
func (s *Server) handlePatterns(c echo.Context) error {
	if s.learning == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "learning is not configured")
	}
	return c.JSON(http.StatusOK, s.learning.Patterns())
}

// handleProposals lists proposals, optionally filtered by gate decision.
func (s *Server) handleProposals(c echo.Context) error {
	if s.learning == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "learning is not configured")
	}
	store := s.learning.Proposals()
	switch c.QueryParam("decision") {
	case "":
		return c.JSON(http.StatusOK, store.All())
	case "propose":
		return c.JSON(http.StatusOK, store.Approved())
	case "reject":
		return c.JSON(http.StatusOK, store.Rejected())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "decision must be propose or reject")
	}
}
