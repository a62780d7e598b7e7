package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sorvetao/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
// Probe requests are logged at debug level.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))
		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if sid := c.Param("id"); sid != "" {
			fields = append(fields, "session_id", sid)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}

		l := log.WithContext(c.Request.Context())
		if strings.HasPrefix(path, "/health") {
			l.Debugw("http request", fields...)
			return
		}
		l.Infow("http request", fields...)
	}
}
