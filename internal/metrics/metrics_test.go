package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNew_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("first New: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatal("expected error registering twice on one registry")
	}
}

func TestMiddleware_CountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestMetrics(t)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", m.Handler())

	for range 3 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/ping", "200")); got != 3 {
		t.Errorf("requests = %v, want 3", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{endpoint="/ping",method="GET",status="200"} 3`) {
		t.Errorf("exposition missing request counter:\n%s", rec.Body.String())
	}
}

func TestObserveGeneration(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveGeneration("ok", 1, time.Second)
	m.ObserveGeneration("repaired", 2, 3*time.Second)
	m.ObserveGeneration("ok", 1, time.Second)
	m.ObserveModelCall("quiz-gen", nil)
	m.ObserveModelCall("quiz-repair", errors.New("boom"))

	if got := testutil.ToFloat64(m.generations.WithLabelValues("ok", "1")); got != 2 {
		t.Errorf("ok generations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.generations.WithLabelValues("repaired", "2")); got != 1 {
		t.Errorf("repaired generations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.modelCalls.WithLabelValues("quiz-repair", "error")); got != 1 {
		t.Errorf("failed repair calls = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration("ok", 1, time.Second)
	m.ObserveModelCall("quiz-gen", nil)
	m.ObserveCache("hit")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
}
