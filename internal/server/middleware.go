package server

import (
	"crypto/subtle"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/entanglegraph/entanglegraph/pkg/metrics"
)

// recoveryMiddleware catches panics, logs the stack trace and returns a
// generic 500 so handler crashes never take the server down or leak
// internals. It must be the outermost middleware.
func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered in HTTP handler",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs every request and records Prometheus metrics with
// duration and status. Metrics are labeled with the route template rather
// than the raw path to keep label cardinality bounded.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", duration.String(),
			"ip", c.ClientIP(),
		)

		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(duration.Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
	}
}

// authMiddleware rejects requests whose bearer token does not match the
// configured API key. Installed only when an API key is configured.
func (s *Server) authMiddleware() gin.HandlerFunc {
	key := []byte(s.cfg.APIKey)
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if subtle.ConstantTimeCompare([]byte(token), key) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}

// extractBearerToken pulls the token out of an "Authorization: Bearer x"
// header. Returns "" when the header is missing or malformed.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
