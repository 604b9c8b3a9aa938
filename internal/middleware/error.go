package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riveravet/clinic-api/pkg/httputil"
	"github.com/riveravet/clinic-api/pkg/logger"
)

// ErrorHandler logs errors attached with c.Error and answers for handlers
// that attached one without writing a response.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			log.Error(e.Err, "request error",
				"request_id", c.GetString(ContextRequestID),
				"method", c.Request.Method,
				"path", c.FullPath(),
				"client_ip", c.ClientIP(),
			)
		}

		if c.Writer.Written() {
			return
		}

		status := http.StatusInternalServerError
		if err, ok := c.Errors.Last().Err.(interface{ StatusCode() int }); ok {
			status = err.StatusCode()
		}
		httputil.Abort(c, status, http.StatusText(status))
	}
}
