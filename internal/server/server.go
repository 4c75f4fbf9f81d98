// Package server exposes quiz generation, records and scoring over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/quizzly/internal/logger"
	"github.com/abhisek/quizzly/internal/metrics"
	"github.com/abhisek/quizzly/internal/quizgen"
	"github.com/abhisek/quizzly/internal/store"
)

// Options wires the router's collaborators. Generator is nil when no
// model key is configured; the generate endpoint then answers 500.
type Options struct {
	Generator   quizgen.Generator
	Records     store.RecordRepo
	Metrics     *metrics.Metrics
	Log         *logger.Logger
	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "http")

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(opts.Metrics.Middleware())
	r.Use(corsMiddleware(opts.CORSOrigins))

	r.NoMethod(func(c *gin.Context) {
		if c.Request.URL.Path == "/api/quiz-generate" {
			fail(c, http.StatusMethodNotAllowed, "Method not allowed. Use POST.")
			return
		}
		fail(c, http.StatusMethodNotAllowed, "Method not allowed.")
	})
	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Not found.")
	})

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", opts.Metrics.Handler())

	h := &quizHandler{generator: opts.Generator, records: opts.Records, log: log}

	api := r.Group("/api")
	api.OPTIONS("/quiz-generate", preflight)
	api.GET("/hello", hello)

	limited := api.Group("", rateLimiter(opts.RateLimit, opts.RateWindow))
	limited.POST("/quiz-generate", h.generate)
	if opts.Records != nil {
		limited.POST("/quizzes", h.createRecord)
		limited.GET("/quizzes/:id", h.getRecord)
		limited.POST("/quizzes/:id/score", h.scoreRecord)
	}
	return r
}

// Server is an http.Server with graceful shutdown.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// New wraps handler. writeTimeout must allow for a generation with repair.
func New(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for
// up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
