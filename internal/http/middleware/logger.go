package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/common/logger"
)

const healthPath = "/health"

// Logger writes one access log line per request, tagged with the route
// template and, for comment reads, the cache partition and bust flag.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithLogFields(c.Request.Context(), logger.LogFields{
			Component: "trialwatch.http",
		}))

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		ctx := c.Request.Context()

		attrs := []any{
			"method", c.Request.Method,
			"route", routeOf(c),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if from := c.Query("from"); from != "" {
			attrs = append(attrs, "partition", from)
		}
		if _, bust := c.GetQuery("t"); bust {
			attrs = append(attrs, "cache_bust", true)
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.ErrorContext(ctx, "request failed", attrs...)
		case status >= 400:
			slog.WarnContext(ctx, "request error", attrs...)
		case c.Request.URL.Path == healthPath:
			slog.DebugContext(ctx, "health check", attrs...)
		default:
			slog.InfoContext(ctx, "request", attrs...)
		}
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
