// Package server exposes scope trees over HTTP.
//
// Every request builds a fresh tree from the shared, read-only model, so
// handlers hold no mutable state besides the prometheus collectors. Node
// ids are deterministic for identical model and query, which lets clients
// follow ids from one response into a /tree/:node request.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dkoosis/rollup/internal/logging"
	"github.com/dkoosis/rollup/internal/metrics"
	"github.com/dkoosis/rollup/pkg/hostmodel"
	"github.com/dkoosis/rollup/pkg/ordering"
)

// Defaults fill query parameters the client leaves out.
type Defaults struct {
	MaxChildren     int
	OrderBy         string
	TestTieBreak    string
	ProblemTieBreak string
	SplitByBuild    bool
	GroupParallel   bool
}

// Server serves one model.
type Server struct {
	model    *hostmodel.Model
	defaults Defaults
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	engine   *gin.Engine
}

// New wires the routes. A nil logger discards.
func New(m *hostmodel.Model, d Defaults, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	registerValidations()

	reg := prometheus.NewRegistry()
	s := &Server{
		model:    m,
		defaults: d,
		logger:   logger,
		registry: reg,
		metrics:  metrics.New(reg),
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	api := s.engine.Group("/api/v1/:domain")
	api.GET("/tree", s.handleTree)
	api.GET("/tree/:node", s.handleTree)
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}

// registerValidations adds the nodeorder tag to gin's validator.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("nodeorder", validNodeOrder)
	}
}

func validNodeOrder(fl validator.FieldLevel) bool {
	_, err := ordering.ParseNodeOrder(fl.Field().String())
	return err == nil
}
