// Package server serves a built dashboard over HTTP along with its JSON
// summary and Prometheus metrics
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/jgoulah/taxistats/internal/report"
)

// Server serves the latest report
type Server struct {
	echo    *echo.Echo
	log     zerolog.Logger
	metrics *metrics

	mu   sync.RWMutex
	rep  *report.Report
	page []byte
}

// New creates a server for rep
func New(rep *report.Report, log zerolog.Logger) (*Server, error) {
	s := &Server{echo: echo.New(), log: log, metrics: newMetrics()}
	if err := s.SetReport(rep); err != nil {
		return nil, err
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.requestLogger)
	s.echo.Use(s.metrics.middleware)

	s.echo.GET("/", s.handleDashboard)
	s.echo.GET("/api/summary", s.handleSummary)
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	s.echo.GET("/metrics", s.metrics.handler())

	return s, nil
}

// SetReport swaps the served report
func (s *Server) SetReport(rep *report.Report) error {
	if rep == nil {
		return errors.New("report is required")
	}
	var buf bytes.Buffer
	if err := rep.Render(&buf); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rep = rep
	s.page = buf.Bytes()
	s.metrics.observeReport(rep)
	return nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("serving dashboard")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("starting server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

func (s *Server) handleDashboard(c echo.Context) error {
	s.mu.RLock()
	page := s.page
	s.mu.RUnlock()
	return c.HTMLBlob(http.StatusOK, page)
}

func (s *Server) handleSummary(c echo.Context) error {
	s.mu.RLock()
	summary := s.rep.Summary()
	s.mu.RUnlock()
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		s.log.Debug().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}
