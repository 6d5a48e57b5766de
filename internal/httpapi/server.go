// Package httpapi exposes the translation workflow over HTTP: an
// interactive submission endpoint, a storage-notification endpoint for the
// batch flow, and a job listing backed by the journal.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/yrakibi/doctran/internal/journal"
	"github.com/yrakibi/doctran/internal/orchestrator"
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Service is the slice of the orchestrator the server needs.
type Service interface {
	Translate(ctx context.Context, sub orchestrator.Submission) (*orchestrator.Result, error)
	HandleObjectCreated(ctx context.Context, ev orchestrator.ObjectCreatedEvent) (*orchestrator.BatchOutcome, error)
}

// JobLister reads recent job records. May be absent.
type JobLister interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

type Server struct {
	svc    Service
	jobs   JobLister
	logger zerolog.Logger
	opts   Options
}

func NewServer(svc Service, jobs JobLister, logger zerolog.Logger, opts Options) *Server {
	if strings.TrimSpace(opts.Host) == "" {
		opts.Host = "0.0.0.0"
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		// The synchronous translate call for a large document can take a while.
		opts.WriteTimeout = 5 * time.Minute
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	return &Server{svc: svc, jobs: jobs, logger: logger, opts: opts}
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := s.logger.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				evt = s.logger.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealth)
	e.POST("/api/translate", s.handleTranslate)
	e.POST("/api/events/gcs", s.handleObjectCreated)
	e.GET("/api/jobs", s.handleJobs)

	return e
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s.svc == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.routes()
	e.Server.ReadTimeout = s.opts.ReadTimeout
	e.Server.WriteTimeout = s.opts.WriteTimeout

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()
	s.logger.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
