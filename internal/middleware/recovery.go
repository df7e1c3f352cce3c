package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a panic in a handler into a logged 500 response with the standard
// error envelope.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				requestLogger := GetLogger(c)
				if requestLogger == nil {
					requestLogger = log
				}

				requestLogger.Error("Panic recovered", fmt.Errorf("panic: %v", rec), map[string]interface{}{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"stack":  string(debug.Stack()),
				})

				abortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR",
					"An unexpected error occurred")
			}
		}()

		c.Next()
	}
}

// abortWithError writes the error envelope without importing the responders package,
// which itself depends on this one.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":       code,
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}
