package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"fnaterm/internal/monitoring"
)

// PrometheusMetrics records request counts and latency by route.
func PrometheusMetrics(m *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := c.Writer.Status()
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, http.StatusText(status)).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// SentryMiddleware wraps each request in a Sentry transaction. Each request
// gets its own hub clone so scope data never leaks between requests.
func SentryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sentry.CurrentHub().Client() == nil {
			c.Next()
			return
		}
		hub := sentry.CurrentHub().Clone()
		ctx := sentry.SetHubOnContext(c.Request.Context(), hub)

		transaction := sentry.StartTransaction(
			ctx,
			fmt.Sprintf("%s %s", c.Request.Method, c.FullPath()),
			sentry.ContinueFromRequest(c.Request),
		)
		defer func() {
			transaction.Status = sentry.HTTPtoSpanStatus(c.Writer.Status())
			transaction.Finish()
		}()

		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetContext("Request", map[string]any{
				"Method":  c.Request.Method,
				"URL":     c.Request.URL.String(),
				"Headers": safeHeaders(c.Request.Header),
			})
			scope.SetTag("http.method", c.Request.Method)
			scope.SetTag("http.route", c.FullPath())
		})

		c.Request = c.Request.WithContext(transaction.Context())
		c.Next()
	}
}

// ErrorHandler forwards errors attached with c.Error to Sentry and the log.
func (s *Server) ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, ginErr := range c.Errors {
			s.logger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, ginErr.Err)
			monitoring.CaptureError(c.Request.Context(), ginErr.Err, map[string]any{
				"endpoint": c.Request.URL.Path,
				"method":   c.Request.Method,
				"status":   c.Writer.Status(),
			})
		}
	}
}

func safeHeaders(h http.Header) map[string]any {
	safe := make(map[string]any, len(h))
	for k, v := range h {
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
			safe[k] = "[FILTERED]"
		} else {
			safe[k] = v
		}
	}
	return safe
}
