package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/equipviz/backend/internal/logger"
	"github.com/equipviz/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware accepts HTTP basic credentials or a bearer token issued by
// the token endpoint.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authentication credentials were not provided")
			return
		}

		if strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := auth.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				unauthorized(c, "Invalid token")
				return
			}
			c.Set("user_id", claims.UserID)
			c.Set("username", claims.Username)
			c.Next()
			return
		}

		username, password, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), username, password)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCredentials) {
				unauthorized(c, "Invalid username/password")
				return
			}
			logger.WithRequest(c.GetString("request_id")).WithError(err).Error("Failed to verify credentials")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify credentials"})
			return
		}

		c.Set("user_id", user.ID)
		c.Set("username", user.Username)
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Basic realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
