// Package metrics exposes Prometheus instruments for the HTTP boundary and
// the quiz generation pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registered collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	generations *prometheus.CounterVec
	genDuration *prometheus.HistogramVec
	modelCalls  *prometheus.CounterVec
	cache       *prometheus.CounterVec
}

// New registers the collectors on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "endpoint"},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quizgen_generations_total",
				Help: "Quiz generations by outcome",
			},
			[]string{"outcome", "attempts"},
		),
		genDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quizgen_generation_duration_seconds",
				Help:    "Wall time of a quiz generation including repair",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"outcome"},
		),
		modelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quizgen_model_calls_total",
				Help: "Model calls by purpose and result",
			},
			[]string{"purpose", "result"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_record_cache_total",
				Help: "Quiz record cache lookups by result",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.requests, m.duration, m.generations, m.genDuration, m.modelCalls, m.cache,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	var h http.Handler
	if m == nil {
		h = promhttp.Handler()
	} else {
		h = promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	}
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveGeneration records one finished pipeline run.
func (m *Metrics) ObserveGeneration(outcome string, attempts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome, strconv.Itoa(attempts)).Inc()
	m.genDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveModelCall records one model call.
func (m *Metrics) ObserveModelCall(purpose string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.modelCalls.WithLabelValues(purpose, result).Inc()
}

// ObserveCache records a cache lookup; result is "hit", "miss" or "error".
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}
