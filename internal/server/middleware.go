package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/abhisek/quizzly/internal/logger"
)

// corsMiddleware allows the configured origins. "*" allows any origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Authorization", headerOwnerUID, headerOwnerEmail},
		MaxAge:       12 * time.Hour,
	}
	cfg.AllowAllOrigins = len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// requestLogger logs one line per request at a level matching the status.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter allows maxRequests per window per client IP, with bursts of
// up to maxRequests. Idle entries are swept on access. maxRequests <= 0
// disables limiting.
func rateLimiter(maxRequests int, window time.Duration) gin.HandlerFunc {
	if maxRequests <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu        sync.Mutex
		visitors  = make(map[string]*visitor)
		lastSweep = time.Now()
	)
	expiry := window * 3
	if expiry < time.Minute {
		expiry = time.Minute
	}
	every := rate.Every(window / time.Duration(maxRequests))

	return func(c *gin.Context) {
		key := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for ip, v := range visitors {
				if now.Sub(v.lastSeen) > expiry {
					delete(visitors, ip)
				}
			}
			lastSweep = now
		}
		v, ok := visitors[key]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(every, maxRequests)}
			visitors[key] = v
		}
		v.lastSeen = now
		mu.Unlock()

		if !v.limiter.Allow() {
			fail(c, http.StatusTooManyRequests, "Too many requests.")
			return
		}
		c.Next()
	}
}
