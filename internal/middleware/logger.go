package middleware

import (
	"time"

	"github.com/equipviz/backend/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// CustomLoggerMiddleware tags each request with an id and logs one line per request.
func CustomLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		// Process request
		c.Next()

		latency := time.Since(start)

		username := c.GetString("username")
		if username == "" {
			username = "-"
		}

		logger.WithRequest(requestID).WithFields(map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": latency.String(),
			"client":  c.ClientIP(),
			"user":    username,
		}).Info("[API] request handled")
	}
}
