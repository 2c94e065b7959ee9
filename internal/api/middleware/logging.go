package middleware

import (
	"time"

	"collab-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

// LogApi writes one structured line per request.
func LogApi(log *logger.Logger) gin.HandlerFunc {
	l := log.Component("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"ip", c.ClientIP(),
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"user_agent", c.Request.UserAgent(),
			"latency", time.Since(start),
			"proto", c.Request.Proto,
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			args = append(args, "error", errs)
		}

		switch {
		case c.Writer.Status() >= 500:
			l.Error("Request", args...)
		case c.Writer.Status() >= 400:
			l.Warn("Request", args...)
		default:
			l.Info("Request", args...)
		}
	}
}
