package middleware

import (
	"strings"
	"time"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/gin-gonic/gin"
)

// LoggerKey is the gin context key holding the request-scoped logger.
const LoggerKey = "logger"

// Logger stores a request-scoped logger on the context and logs one line per request
// once it completes. Health probes are logged at debug level only.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := log.WithRequestID(GetRequestID(c))
		c.Set(LoggerKey, requestLogger)

		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}
		if c.Request.URL.RawQuery != "" {
			fields["query"] = c.Request.URL.RawQuery
		}
		if identity, ok := GetIdentity(c); ok {
			fields["user_id"] = identity.UserID.String()
			fields["role"] = identity.Role
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			requestLogger.Error("Request completed with server error", nil, fields)
		case status >= 400:
			requestLogger.Warn("Request completed with client error", fields)
		case strings.HasPrefix(c.Request.URL.Path, "/health"):
			requestLogger.Debug("Health probe", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLogger retrieves the request logger from the gin context, or nil when unset.
func GetLogger(c *gin.Context) *logger.Logger {
	if value, exists := c.Get(LoggerKey); exists {
		if log, ok := value.(*logger.Logger); ok {
			return log
		}
	}
	return nil
}
