package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/pool-occupancy/internal/logger"
	"github.com/OldStager01/pool-occupancy/internal/metrics"
)

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := map[string]interface{}{
			"status":     status,
			"method":     c.Request.Method,
			"path":       path,
			"latency_ms": latency.Milliseconds(),
			"ip":         c.ClientIP(),
		}

		if query != "" {
			fields["query"] = query
		}

		if traceID := GetTraceID(c); traceID != "" {
			fields["trace_id"] = traceID
		}

		if weekID := c.Param("id"); weekID != "" {
			fields["week_id"] = weekID
		}

		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)

		switch {
		case status >= 500:
			entry.Error("server error")
		case status >= 400:
			entry.Warn("client error")
		default:
			entry.Info("request completed")
		}
	}
}

// Metrics records request counts and latency by route pattern.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(route, c.Writer.Status(), time.Since(start))
	}
}
