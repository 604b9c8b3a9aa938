package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/riveravet/clinic-api/pkg/logger"
)

// Logger returns a middleware that logs HTTP requests. Bodies are never
// logged; they carry passwords and payment details.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []interface{}{
			"request_id", c.GetString(ContextRequestID),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"status", statusCode,
			"latency_ms", latency.Milliseconds(),
			"user_agent", c.Request.UserAgent(),
		}
		if p, ok := Principal(c); ok {
			fields = append(fields, "user_id", p.UserID.String())
		}

		switch {
		case statusCode >= 500:
			log.Warn("server error", fields...)
		case statusCode >= 400:
			log.Info("client error", fields...)
		default:
			log.Debug("request processed", fields...)
		}
	}
}
